package vision

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestDecodeImageJPEG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, solidImage(8, 8, color.White), nil))

	img, err := decodeImage(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
}

func TestDecodeImagePNGFallback(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solidImage(4, 6, color.Black)))

	img, err := decodeImage(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 6, img.Bounds().Dy())
}

func TestDecodeImageGarbage(t *testing.T) {
	_, err := decodeImage([]byte("definitely not an image"))
	assert.Error(t, err)
}

func TestResizeImageDimensions(t *testing.T) {
	img := solidImage(100, 50, color.White)

	resized := resizeImage(img, 32, 32)
	assert.Equal(t, 32, resized.Bounds().Dx())
	assert.Equal(t, 32, resized.Bounds().Dy())
}

func TestImageToFloat32CHWNormalization(t *testing.T) {
	// A mid-gray pixel (127) sits just below the 127.5 mean.
	img := solidImage(2, 2, color.RGBA{R: 127, G: 127, B: 127, A: 255})

	data := imageToFloat32CHW(img, 2, 2, [3]float32{127.5, 127.5, 127.5}, [3]float32{128.0, 128.0, 128.0})
	require.Len(t, data, 3*2*2)
	for i, v := range data {
		assert.InDelta(t, -0.5/128.0, v, 1e-6, "index %d", i)
	}
}

func TestImageToFloat32CHWChannelLayout(t *testing.T) {
	// Pure red: channel 0 goes high, channels 1 and 2 go low.
	img := solidImage(1, 1, color.RGBA{R: 255, A: 255})

	data := imageToFloat32CHW(img, 1, 1, [3]float32{127.5, 127.5, 127.5}, [3]float32{127.5, 127.5, 127.5})
	require.Len(t, data, 3)
	assert.InDelta(t, 1.0, data[0], 1e-6)
	assert.InDelta(t, -1.0, data[1], 1e-6)
	assert.InDelta(t, -1.0, data[2], 1e-6)
}

func TestCropFaceClampsAndPads(t *testing.T) {
	img := solidImage(100, 100, color.White)

	crop := cropFace(img, [4]float32{20, 20, 60, 60})
	require.NotNil(t, crop)
	// 40px box with 10% padding on each side -> 48px.
	assert.Equal(t, 48, crop.Bounds().Dx())
	assert.Equal(t, 48, crop.Bounds().Dy())

	// A box past the image edge clamps instead of failing.
	crop = cropFace(img, [4]float32{80, 80, 200, 200})
	require.NotNil(t, crop)
	assert.LessOrEqual(t, crop.Bounds().Dx(), 100)
}

func TestCropFaceDegenerateBox(t *testing.T) {
	img := solidImage(10, 10, color.White)
	assert.Nil(t, cropFace(img, [4]float32{5, 5, 5, 5}))
	assert.Nil(t, cropFace(img, [4]float32{8, 8, 2, 2}))
}

func TestNormalizeUnitLength(t *testing.T) {
	v := []float32{3, 4}
	normalize(v)

	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
}

func TestNMSSuppressesOverlaps(t *testing.T) {
	dets := []Detection{
		{BBox: [4]float32{0, 0, 10, 10}, Confidence: 0.9},
		{BBox: [4]float32{1, 1, 11, 11}, Confidence: 0.8},
		{BBox: [4]float32{50, 50, 60, 60}, Confidence: 0.7},
	}

	kept := nms(dets, 0.4)
	require.Len(t, kept, 2)
	assert.Equal(t, float32(0.9), kept[0].Confidence)
	assert.Equal(t, float32(0.7), kept[1].Confidence)
}

func TestIOU(t *testing.T) {
	a := [4]float32{0, 0, 10, 10}
	assert.InDelta(t, 1.0, iou(a, a), 1e-6)
	assert.InDelta(t, 0.0, iou(a, [4]float32{20, 20, 30, 30}), 1e-6)
}
