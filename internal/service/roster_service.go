package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/seam-events-api/internal/dto"
	"github.com/noah-isme/seam-events-api/internal/models"
	"github.com/noah-isme/seam-events-api/internal/store"
	appErrors "github.com/noah-isme/seam-events-api/pkg/errors"
	"github.com/noah-isme/seam-events-api/pkg/export"
)

var unsafeFilenameChars = regexp.MustCompile(`[^a-z0-9]+`)

// RosterService exports the attendee list of an event.
type RosterService struct {
	store     dataStore
	renderers map[dto.RosterFormat]export.Renderer
	logger    *zap.Logger
}

// NewRosterService constructs a RosterService with CSV and PDF renderers.
func NewRosterService(store dataStore, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{
		store: store,
		renderers: map[dto.RosterFormat]export.Renderer{
			dto.RosterFormatCSV: export.NewCSVRenderer(),
			dto.RosterFormatPDF: export.NewPDFRenderer(),
		},
		logger: logger,
	}
}

// Export renders the roster of an event owned by the actor.
func (s *RosterService) Export(ctx context.Context, actor models.Actor, eventID string, format dto.RosterFormat) (*dto.RosterFile, error) {
	if format == "" {
		format = dto.RosterFormatCSV
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported roster format")
	}

	var (
		event   models.Event
		entries []dto.RosterEntry
	)
	err := s.store.View(ctx, "events.roster", func(tx *store.Tx) error {
		events, err := tx.Events()
		if err != nil {
			return err
		}
		idx := findEvent(events, eventID)
		if idx < 0 {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		event = events[idx]
		if event.CreatedBy != actor.ID {
			return appErrors.Clone(appErrors.ErrForbidden, "only the creator can export the roster")
		}
		users, err := tx.Users()
		if err != nil {
			return err
		}
		entries = make([]dto.RosterEntry, 0, len(event.Attendees))
		for _, id := range event.Attendees {
			if i := findUserByID(users, id); i >= 0 {
				entries = append(entries, dto.RosterEntry{Name: users[i].Name, Email: users[i].Email})
				continue
			}
			entries = append(entries, dto.RosterEntry{Name: id})
		}
		return nil
	})
	if err != nil {
		return nil, storeFailure(ctx, s.logger, err, "failed to load roster")
	}

	table := export.Table{
		Title:    event.Title,
		Subtitle: rosterSubtitle(event),
		Headers:  []string{"Name", "Email"},
		Rows:     make([][]string, 0, len(entries)),
	}
	for _, e := range entries {
		table.Rows = append(table.Rows, []string{e.Name, e.Email})
	}

	data, err := renderer.Render(table)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
	}

	return &dto.RosterFile{
		Filename:    rosterFilename(event, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Data:        data,
	}, nil
}

func rosterSubtitle(e models.Event) string {
	parts := make([]string, 0, 2)
	if !e.Date.IsZero() {
		parts = append(parts, e.Date.Format("2006-01-02 15:04 MST"))
	}
	if e.Location != "" {
		parts = append(parts, e.Location)
	}
	return strings.Join(parts, " | ")
}

func rosterFilename(e models.Event, ext string) string {
	slug := strings.Trim(unsafeFilenameChars.ReplaceAllString(strings.ToLower(e.Title), "-"), "-")
	if slug == "" {
		slug = e.ID
	}
	return fmt.Sprintf("%s-roster.%s", slug, ext)
}
