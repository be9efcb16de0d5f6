// Package emailform maintains the email channel of one item: recipient
// tokenization, template list loading with display-name disambiguation,
// preview rendering and the lazy invalidation flags that keep those
// artifacts fresh without redundant fetches.
package emailform

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"corrcreate/internal/cache"
	"corrcreate/internal/dataservice"
	"corrcreate/internal/lookup"
	"corrcreate/internal/models"
	"corrcreate/internal/rules"
	"corrcreate/internal/store"
)

// Validation texts for the email sub-form.
const (
	TextRecipientsRequired = "Enter at least one recipient"
	TextTemplateRequired   = "Select an email template"
	TextInvalidRecipient   = "Enter a valid email address"
	TextDuplicateRecipient = "Recipient already added"
)

// Manager drives the email sub-form state for a session's items.
type Manager struct {
	store   *store.Store
	data    dataservice.Service
	lookups *lookup.Coordinator
	cache   *cache.Cache
	ttl     time.Duration
	logger  zerolog.Logger
}

// New creates an email sub-form manager. The cache is shared with the lookup
// coordinator, so template lists survive across items of the same type.
func New(st *store.Store, data dataservice.Service, lookups *lookup.Coordinator, c *cache.Cache, ttl time.Duration, logger zerolog.Logger) *Manager {
	return &Manager{store: st, data: data, lookups: lookups, cache: c, ttl: ttl, logger: logger}
}

// Tokenize consumes the raw recipient input: valid addresses move into the
// recipient list, duplicates are flagged Warning, invalid candidates are
// flagged Error. Unconsumed candidates stay in the input buffer.
func (m *Manager) Tokenize(itemID int, input string) error {
	return m.store.Update(itemID, func(it *models.CorrespondenceItem) {
		var leftover []string
		state := models.ValueStateNone
		stateText := ""

		candidates := rules.SplitRecipients(input)
		for i, candidate := range candidates {
			if contains(it.Email.Recipients, candidate) {
				leftover = append(leftover, candidate)
				state = models.ValueStateWarning
				stateText = TextDuplicateRecipient
				continue
			}
			if rules.ValidEmail(candidate) {
				it.Email.Recipients = append(it.Email.Recipients, candidate)
				continue
			}
			// tokenization stops at the first invalid candidate; it and
			// everything after it stay in the buffer
			leftover = append(leftover, candidates[i:]...)
			state = models.ValueStateError
			stateText = TextInvalidRecipient
			break
		}

		it.Email.Input = strings.Join(leftover, " ")
		it.Email.InputState = state
		it.Email.InputStateText = stateText
	})
}

// RemoveRecipient drops one tokenized address.
func (m *Manager) RemoveRecipient(itemID int, address string) error {
	return m.store.Update(itemID, func(it *models.CorrespondenceItem) {
		kept := it.Email.Recipients[:0]
		for _, r := range it.Email.Recipients {
			if r != address {
				kept = append(kept, r)
			}
		}
		it.Email.Recipients = kept
	})
}

// LoadTemplates binds the template list for the item's selected type when
// the template flag is stale, serving repeat loads of the same type from the
// shared cache. Display names fall back to the template key, sort
// case-insensitively and duplicates get an index suffix; the selection key
// is never touched.
func (m *Manager) LoadTemplates(ctx context.Context, itemID int) error {
	var realID int
	var selected *models.CorrespondenceType
	var stale bool

	err := m.store.View(itemID, func(it *models.CorrespondenceItem) {
		realID = it.ID
		stale = it.Email.InvalidateEmailTemplate
		if it.SelectedType != nil {
			t := it.SelectedType.Clone()
			selected = &t
		}
	})
	if err != nil {
		return err
	}
	if !stale || selected == nil {
		return nil
	}

	prepared, err := m.loadTemplateList(ctx, selected)
	if err != nil {
		return fmt.Errorf("item %d: failed to load email templates: %w", realID, err)
	}

	return m.store.Update(realID, func(it *models.CorrespondenceItem) {
		it.Email.Templates = prepared
		it.Email.InvalidateEmailTemplate = false
	})
}

func (m *Manager) loadTemplateList(ctx context.Context, selected *models.CorrespondenceType) ([]models.EmailTemplate, error) {
	key := cache.TemplatesKey(selected.Key())
	if cached, ok := m.cache.Get(key); ok {
		return cached.([]models.EmailTemplate), nil
	}

	templates, err := m.data.ListEmailTemplates(ctx, selected.Event, selected.VariantID, selected.ID)
	if err != nil {
		return nil, err
	}
	prepared := PrepareTemplates(templates)
	m.cache.Set(key, prepared, m.ttl)
	return prepared, nil
}

// PrepareTemplates normalizes a raw template list for display: empty names
// fall back to the key, the list sorts case-insensitively by name, and
// duplicate display names get a " (n)" suffix while keeping their keys.
func PrepareTemplates(templates []models.EmailTemplate) []models.EmailTemplate {
	out := make([]models.EmailTemplate, len(templates))
	copy(out, templates)

	for i := range out {
		if out[i].Name == "" {
			out[i].Name = out[i].Key
		}
		out[i].DisplayName = out[i].Name
	}

	coll := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(out, func(i, j int) bool {
		return coll.CompareString(out[i].DisplayName, out[j].DisplayName) < 0
	})

	seen := make(map[string]int, len(out))
	for i := range out {
		lower := strings.ToLower(out[i].DisplayName)
		seen[lower]++
		if n := seen[lower]; n > 1 {
			out[i].DisplayName = fmt.Sprintf("%s (%d)", out[i].DisplayName, n)
		}
	}
	return out
}

// TemplateSelected records a template choice: the subject latch resets so
// the next preview may suggest a subject again, and the preview goes stale.
func (m *Manager) TemplateSelected(itemID int, templateKey string) error {
	return m.store.Update(itemID, func(it *models.CorrespondenceItem) {
		it.Email.TemplateKey = templateKey
		it.Email.TemplateState = models.ValueStateNone
		it.Email.SubjectChanged = false
		it.Email.InvalidateEmailTemplatePreview = true
	})
}

// SubjectEdited records a manual subject edit. The latch stays set until the
// template changes, so rendered previews stop overwriting the subject.
func (m *Manager) SubjectEdited(itemID int, subject string) error {
	return m.store.Update(itemID, func(it *models.CorrespondenceItem) {
		it.Email.Subject = subject
		it.Email.SubjectChanged = true
	})
}

// RenderPreview renders the selected template against the item's current
// basic-field values when the preview is stale. The result carries either
// HTML or plain text; the suggested subject applies unless the user already
// edited the subject.
func (m *Manager) RenderPreview(ctx context.Context, itemID int) error {
	var realID int
	var templateKey, lang string
	var stale bool
	var input models.InputData
	var buildErr error

	err := m.store.View(itemID, func(it *models.CorrespondenceItem) {
		realID = it.ID
		templateKey = it.Email.TemplateKey
		lang = it.Email.Language
		stale = it.Email.InvalidateEmailTemplatePreview
		input, buildErr = models.BuildInputData(it)
	})
	if err != nil {
		return err
	}
	if buildErr != nil {
		return fmt.Errorf("item %d: %w", realID, buildErr)
	}
	if !stale || templateKey == "" {
		return nil
	}

	// the render contract always carries both dates
	if input.Date1 == "" {
		input.Date1 = rules.FormatAbapDate(nil)
	}
	if input.Date2 == "" {
		input.Date2 = rules.FormatAbapDate(nil)
	}

	result, err := m.data.RenderEmailTemplate(ctx, dataservice.RenderRequest{
		TemplateKey: templateKey,
		Language:    lang,
		Data:        input,
	})
	if err != nil {
		return fmt.Errorf("item %d: failed to render template %q: %w", realID, templateKey, err)
	}

	return m.store.Update(realID, func(it *models.CorrespondenceItem) {
		if it.Email.TemplateKey != templateKey {
			// selection moved on while the render was in flight
			return
		}
		it.Email.PreviewHTML = result.BodyHTML
		it.Email.PreviewText = result.BodyText
		if result.BodyHTML != "" {
			it.Email.PreviewText = ""
		}
		if result.Subject != "" && !it.Email.SubjectChanged {
			it.Email.Subject = result.Subject
		}
		it.Email.InvalidateEmailTemplatePreview = false
		it.Email.InvalidateEmailSubject = false
	})
}

// OpenForm prepares the email sub-form for display, consuming the stale
// flags: sender address, default recipients and the default subject reload
// from the dialog defaults, the template list refreshes for the selected
// type. A manually edited subject is never overwritten.
func (m *Manager) OpenForm(ctx context.Context, itemID int) error {
	var realID int
	var needDefaults bool

	err := m.store.Update(itemID, func(it *models.CorrespondenceItem) {
		realID = it.ID
		needDefaults = it.Email.InvalidateSenderAddress || it.Email.InvalidateEmailTo ||
			it.Email.InvalidateEmailSubject
		it.Email.TemplateVisible = it.Email.EmailType == models.EmailTypeNewOM
		it.Email.ContentVisible = true
	})
	if err != nil {
		return err
	}

	if needDefaults {
		defaults, err := m.lookups.LoadDialogDefaults(ctx, realID)
		if err != nil {
			m.logger.Warn().Err(err).Int("item_id", realID).Msg("dialog defaults unavailable")
		} else if err := m.store.Update(realID, func(it *models.CorrespondenceItem) {
			if it.Email.InvalidateSenderAddress {
				it.Email.SenderAddress = defaults.SenderAddress
				it.Email.InvalidateSenderAddress = false
			}
			if it.Email.InvalidateEmailTo {
				it.Email.FallbackEmails = splitPartnerEmails(defaults.BusinessPartnerEmail)
				it.Email.InvalidateEmailTo = false
			}
			if it.Email.InvalidateEmailSubject {
				if !it.Email.SubjectChanged {
					it.Email.Subject = defaults.Subject
				}
				it.Email.InvalidateEmailSubject = false
			}
			if it.Email.Language == "" {
				it.Email.Language = defaults.Language
			}
		}); err != nil {
			return err
		}
	}

	return m.LoadTemplates(ctx, realID)
}

// Validate checks the email channel before dispatch: recipients are
// required, and template-based mail needs a template selection.
func (m *Manager) Validate(itemID int) (bool, error) {
	valid := true
	var realID int
	var messages []models.PopoverMessage
	var clear []string

	err := m.store.Update(itemID, func(it *models.CorrespondenceItem) {
		realID = it.ID

		if len(it.Email.Recipients) == 0 {
			it.Email.InputState = models.ValueStateError
			it.Email.InputStateText = TextRecipientsRequired
			messages = append(messages, models.PopoverMessage{
				Title: "Recipients", Subtitle: TextRecipientsRequired, Key: "EmailTo",
			})
			valid = false
		} else if it.Email.InputState == models.ValueStateError {
			valid = false
		} else {
			clear = append(clear, "EmailTo")
		}

		if it.Email.EmailType == models.EmailTypeNewOM && it.Email.TemplateKey == "" {
			it.Email.TemplateState = models.ValueStateError
			messages = append(messages, models.PopoverMessage{
				Title: "Email Template", Subtitle: TextTemplateRequired, Key: "EmailTemplate",
			})
			valid = false
		} else {
			it.Email.TemplateState = models.ValueStateNone
			clear = append(clear, "EmailTemplate")
		}
	})
	if err != nil {
		return false, err
	}

	m.store.UpdateMessages(realID, messages, clear)
	return valid, nil
}

func splitPartnerEmails(joined string) []string {
	if joined == "" {
		return nil
	}
	parts := strings.Split(joined, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
