package supabase

import (
	"fmt"

	"github.com/supabase-community/supabase-go"
	"pawpop-backend/internal/config"
)

type Client struct {
	Supabase *supabase.Client
	Config   *config.Config
}

// NewClient connects to the project's REST API with the service role key.
// It backs server-side writes such as the email outbox.
func NewClient(cfg *config.Config) (*Client, error) {
	client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}

	return &Client{
		Supabase: client,
		Config:   cfg,
	}, nil
}
