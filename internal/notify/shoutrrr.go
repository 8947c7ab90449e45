package notify

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	router "github.com/nicholas-fedor/shoutrrr/pkg/router"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/your-org/facegate/internal/config"
)

// ShoutrrrNotifier delivers reviewer notifications through shoutrrr service
// URLs (smtp://, telegram://, discord://, ...), one sender for all URLs.
type ShoutrrrNotifier struct {
	sender *router.ServiceRouter
}

func NewShoutrrrNotifier(cfg config.NotifyConfig) (*ShoutrrrNotifier, error) {
	if len(cfg.URLs) == 0 {
		return nil, fmt.Errorf("at least one notify URL is required")
	}

	sender, err := shoutrrr.CreateSender(cfg.URLs...)
	if err != nil {
		return nil, fmt.Errorf("create shoutrrr sender: %w", err)
	}
	if cfg.Timeout > 0 {
		sender.Timeout = cfg.Timeout
	} else {
		sender.Timeout = 10 * time.Second
	}
	sender.SetLogger(log.New(io.Discard, "", 0))

	return &ShoutrrrNotifier{sender: sender}, nil
}

func (s *ShoutrrrNotifier) Name() string { return "shoutrrr" }

func (s *ShoutrrrNotifier) Notify(_ context.Context, n ReviewNotification) error {
	body := fmt.Sprintf(
		"A face submission did not match the gallery and needs review.\n\n"+
			"Request: %s\n"+
			"Preview: %s\n\n"+
			"Approve: %s\n"+
			"Deny:    %s\n",
		n.RequestID, n.PreviewURL, n.ApproveURL, n.DenyURL,
	)

	params := stypes.Params{}
	params.SetTitle("Face approval needed")

	errs := s.sender.Send(body, &params)
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
