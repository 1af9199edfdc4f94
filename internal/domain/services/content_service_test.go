package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/athebyme/travel-admin/internal/adapters/backend"
	"github.com/athebyme/travel-admin/internal/adapters/cache"
	"github.com/athebyme/travel-admin/internal/adapters/logger"
	"github.com/athebyme/travel-admin/internal/adapters/messaging"
	"github.com/athebyme/travel-admin/internal/domain/drafts"
	"github.com/athebyme/travel-admin/internal/domain/models"
	"github.com/athebyme/travel-admin/internal/domain/sections"
	"github.com/athebyme/travel-admin/pkg/interfaces"
	pkgmodels "github.com/athebyme/travel-admin/pkg/models"
)

var (
	operator = &pkgmodels.Principal{UserID: "u1", Role: pkgmodels.RoleStaff}
	intruder = &pkgmodels.Principal{UserID: "u2", Role: pkgmodels.RoleStaff}
)

func newContentService(api ContentBackend, bus *fakeMessaging, policy sections.Policy) (*ContentService, drafts.Store) {
	store := drafts.NewCacheStore(cache.NewMemoryCache(), time.Hour)
	var port interfaces.MessagingPort
	if bus != nil {
		port = bus
	}
	svc := NewContentService(store, api, port, ContentOptions{Policy: policy}, logger.NewNopLogger())
	return svc, store
}

func TestSubmitCreateFlow(t *testing.T) {
	ctx := context.Background()
	api := &fakeBackend{}
	bus := &fakeMessaging{}
	svc, store := newContentService(api, bus, sections.PolicyLenient)

	d, err := svc.StartDraft(ctx, operator, "destinations", "")
	if err != nil {
		t.Fatalf("StartDraft: %v", err)
	}
	if _, err := svc.UpdateFields(ctx, operator, d.ID, map[string]string{"name": "Samarkand"}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	_, err = svc.Edit(ctx, operator, d.ID, func(d *drafts.Draft) error {
		i := d.Builder.AddHighlight()
		if err := d.Builder.SetHighlight(i, "A", "D"); err != nil {
			return err
		}
		_, err := d.Builder.AddGalleryImage(sections.LocalImage("g.jpg", "image/jpeg", []byte("g")))
		return err
	})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}

	res, err := svc.Submit(ctx, operator, d.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !res.Created || res.EntityID != "new-id" {
		t.Errorf("result = %+v", res)
	}

	if len(api.created) != 1 {
		t.Fatalf("created forms = %d, want 1", len(api.created))
	}
	form := api.created[0]
	wantSections := `[{"type":"highlight","content":[{"title":"A","description":"D"}]},{"type":"gallery","content":["g.jpg"]}]`
	if form.Fields["sections"] != wantSections {
		t.Errorf("sections = %s", form.Fields["sections"])
	}
	if form.Fields["name"] != "Samarkand" {
		t.Errorf("name = %q", form.Fields["name"])
	}
	if len(form.Files) != 1 || form.Files[0].Field != sections.PartGallery {
		t.Errorf("files = %+v", form.Files)
	}

	if len(bus.sent) != 1 || bus.sent[0].topic != messaging.ContentEventsTopic {
		t.Fatalf("published = %+v", bus.sent)
	}
	event, err := messaging.DecodeContentEvent(bus.sent[0].value)
	if err != nil {
		t.Fatal(err)
	}
	if event.EventType != messaging.DestinationCreatedEvent || event.EntityID != "new-id" || event.ChangedBy != "u1" {
		t.Errorf("event = %+v", event)
	}

	if _, err := store.Get(ctx, d.ID); !errors.Is(err, drafts.ErrDraftNotFound) {
		t.Errorf("draft still present after submit: %v", err)
	}
}

func TestSubmitFailureKeepsDraft(t *testing.T) {
	ctx := context.Background()
	api := &fakeBackend{sendErr: &backend.APIError{Status: 422, Message: "name taken"}}
	bus := &fakeMessaging{}
	svc, store := newContentService(api, bus, sections.PolicyLenient)

	d, _ := svc.StartDraft(ctx, operator, "destinations", "")
	_, _ = svc.UpdateFields(ctx, operator, d.ID, map[string]string{"name": "Bukhara"})

	_, err := svc.Submit(ctx, operator, d.ID)
	var apiErr *backend.APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "name taken" {
		t.Fatalf("error = %v, want backend APIError", err)
	}
	if _, err := store.Get(ctx, d.ID); err != nil {
		t.Errorf("draft lost after failed submit: %v", err)
	}
	if len(bus.sent) != 0 {
		t.Errorf("event published for failed submit")
	}
}

func TestSubmitRequiresName(t *testing.T) {
	ctx := context.Background()
	svc, _ := newContentService(&fakeBackend{}, &fakeMessaging{}, sections.PolicyLenient)

	d, _ := svc.StartDraft(ctx, operator, "destinations", "")
	_, err := svc.Submit(ctx, operator, d.ID)

	var reqErr *RequiredFieldError
	if !errors.As(err, &reqErr) || reqErr.Field != "name" {
		t.Errorf("error = %v, want RequiredFieldError(name)", err)
	}
}

func TestStrictPolicyBlocksSubmit(t *testing.T) {
	ctx := context.Background()
	api := &fakeBackend{}
	svc, _ := newContentService(api, &fakeMessaging{}, sections.PolicyStrict)

	d, _ := svc.StartDraft(ctx, operator, "destinations", "")
	_, _ = svc.Edit(ctx, operator, d.ID, func(d *drafts.Draft) error {
		d.Fields["name"] = "Khiva"
		i := d.Builder.AddHighlight()
		return d.Builder.SetHighlight(i, "only title", "")
	})

	_, err := svc.Submit(ctx, operator, d.ID)
	var verr *sections.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if len(api.created) != 0 {
		t.Error("backend called despite validation failure")
	}
}

func TestEditModeRoundTrip(t *testing.T) {
	ctx := context.Background()
	stored := []models.Section{
		{Type: models.SectionIntro, Title: "Hi", Content: json.RawMessage(`"text"`)},
		{Type: models.SectionGallery, Content: json.RawMessage(`["a.jpg"]`)},
		{Type: models.SectionLastImage, Content: json.RawMessage(`"z.jpg"`)},
	}
	api := &fakeBackend{
		entity: &models.Destination{ID: "42", Name: "Khiva", Sections: stored},
		media: []models.Media{
			{Name: "a.jpg", URL: "https://cdn/a.jpg"},
			{Name: "z.jpg", URL: "https://cdn/z.jpg"},
		},
	}
	bus := &fakeMessaging{}
	svc, _ := newContentService(api, bus, sections.PolicyLenient)

	d, err := svc.StartDraft(ctx, operator, "destinations", "42")
	if err != nil {
		t.Fatalf("StartDraft: %v", err)
	}
	if d.Fields["name"] != "Khiva" || !d.IsEdit() {
		t.Errorf("draft = %+v", d)
	}

	res, err := svc.Submit(ctx, operator, d.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Created || res.EntityID != "42" {
		t.Errorf("result = %+v", res)
	}

	form := api.updated[0]
	want := `[{"type":"intro","title":"Hi","content":"text"},{"type":"gallery","content":["a.jpg"]},{"type":"lastImage","content":"z.jpg"}]`
	if form.Fields["sections"] != want {
		t.Errorf("sections = %s\nwant %s", form.Fields["sections"], want)
	}
	if len(form.Files) != 0 {
		t.Errorf("remote images re-sent: %+v", form.Files)
	}

	event, _ := messaging.DecodeContentEvent(bus.sent[0].value)
	if event.EventType != messaging.DestinationUpdatedEvent {
		t.Errorf("event type = %s", event.EventType)
	}
}

func TestEditModeIgnoresStoredSectionsField(t *testing.T) {
	ctx := context.Background()
	api := &fakeBackend{
		entity: &models.Destination{
			ID:     "42",
			Name:   "Khiva",
			Fields: map[string]string{"sections": "[]", "region": "Khorezm"},
		},
	}
	svc, _ := newContentService(api, nil, sections.PolicyLenient)

	d, err := svc.StartDraft(ctx, operator, "destinations", "42")
	if err != nil {
		t.Fatalf("StartDraft: %v", err)
	}
	if _, ok := d.Fields["sections"]; ok {
		t.Errorf("draft fields carry the reserved key: %v", d.Fields)
	}
	if d.Fields["region"] != "Khorezm" {
		t.Errorf("region = %q", d.Fields["region"])
	}

	if _, err := svc.Submit(ctx, operator, d.ID); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got := api.updated[0].Fields["region"]; got != "Khorezm" {
		t.Errorf("submitted region = %q", got)
	}
}

func TestStartDraftFetchError(t *testing.T) {
	api := &fakeBackend{fetchErr: &backend.APIError{Status: 404, Message: "not found"}}
	svc, _ := newContentService(api, nil, sections.PolicyLenient)

	if _, err := svc.StartDraft(context.Background(), operator, "destinations", "404"); !backend.IsNotFound(err) {
		t.Errorf("error = %v, want not found", err)
	}
}

func TestDraftOwnership(t *testing.T) {
	ctx := context.Background()
	svc, _ := newContentService(&fakeBackend{}, nil, sections.PolicyLenient)

	d, _ := svc.StartDraft(ctx, operator, "destinations", "")

	if _, err := svc.GetDraft(ctx, intruder, d.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("GetDraft error = %v, want ErrForbidden", err)
	}
	if err := svc.DiscardDraft(ctx, intruder, d.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("DiscardDraft error = %v, want ErrForbidden", err)
	}
	if err := svc.DiscardDraft(ctx, operator, d.ID); err != nil {
		t.Errorf("DiscardDraft by owner: %v", err)
	}
}

func TestStartDraftUnknownResource(t *testing.T) {
	svc, _ := newContentService(&fakeBackend{}, nil, sections.PolicyLenient)
	if _, err := svc.StartDraft(context.Background(), operator, "bookings", ""); !errors.Is(err, ErrUnknownResource) {
		t.Errorf("error = %v, want ErrUnknownResource", err)
	}
}

func TestUpdateFields(t *testing.T) {
	ctx := context.Background()
	svc, _ := newContentService(&fakeBackend{}, nil, sections.PolicyLenient)
	d, _ := svc.StartDraft(ctx, operator, "destinations", "")

	_, _ = svc.UpdateFields(ctx, operator, d.ID, map[string]string{"name": "X", "country": "UZ"})
	got, err := svc.UpdateFields(ctx, operator, d.ID, map[string]string{"country": ""})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got.Fields["country"]; ok || got.Fields["name"] != "X" {
		t.Errorf("fields = %v", got.Fields)
	}

	if _, err := svc.UpdateFields(ctx, operator, d.ID, map[string]string{"sections": "[]"}); !errors.Is(err, ErrReservedField) {
		t.Errorf("error = %v, want ErrReservedField", err)
	}
}
