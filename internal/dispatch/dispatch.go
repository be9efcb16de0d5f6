// Package dispatch runs batch email/print/preview operations across the
// selected items: a fail-fast validation phase, then one create request per
// item fired concurrently with per-item success tracking, so an individual
// rejection never sinks the batch.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"corrcreate/internal/dataservice"
	"corrcreate/internal/email"
	"corrcreate/internal/emailform"
	"corrcreate/internal/models"
	"corrcreate/internal/store"
	"corrcreate/internal/validate"
)

// State is the batch operation phase.
type State string

const (
	StateIdle        State = "Idle"
	StateValidating  State = "Validating"
	StateDispatching State = "Dispatching"
	StateCompleted   State = "Completed"
)

// Request describes one batch operation.
type Request struct {
	Channel string `json:"channel"` // models.ChannelEmail / ChannelPrint / ChannelPreview / ChannelXML
	Action  string `json:"action,omitempty"`
}

// ItemResult is the per-item outcome of a batch.
type ItemResult struct {
	ItemID              int    `json:"itemId"`
	ApplicationObjectID string `json:"applicationObjectId,omitempty"`
	Succeeded           bool   `json:"succeeded"`
	Error               string `json:"error,omitempty"`
}

// NavigationTarget references one dispatched output for external navigation.
type NavigationTarget struct {
	ApplicationObjectID string `json:"applicationObjectId"`
	ItemID              int    `json:"itemId"`
}

// Result summarizes a batch operation.
type Result struct {
	State        State              `json:"state"`
	Valid        bool               `json:"valid"`
	SuccessCount int                `json:"successCount"`
	Items        []ItemResult       `json:"items,omitempty"`
	Navigation   []NavigationTarget `json:"navigation,omitempty"`
}

// Coordinator runs batch dispatches for one session.
type Coordinator struct {
	store      *store.Store
	data       dataservice.Service
	validator  *validate.Orchestrator
	emails     *emailform.Manager
	sender     email.Sender
	logger     zerolog.Logger
	timeout    time.Duration
	navActions []string
}

// New creates a dispatch coordinator. navActions lists the dispatch actions
// that trigger an external navigation payload on completion.
func New(st *store.Store, data dataservice.Service, v *validate.Orchestrator, emails *emailform.Manager, sender email.Sender, timeout time.Duration, navActions []string, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		store:      st,
		data:       data,
		validator:  v,
		emails:     emails,
		sender:     sender,
		logger:     logger,
		timeout:    timeout,
		navActions: navActions,
	}
}

// Dispatch validates the selected item subset, then fires all create
// requests concurrently and awaits every one. A validation failure aborts
// before anything is sent; an individual rejection only marks its own item.
func (c *Coordinator) Dispatch(ctx context.Context, req Request) (Result, error) {
	ids := c.store.SelectedIDs()
	if len(ids) == 0 {
		return Result{State: StateIdle, Valid: false}, fmt.Errorf("nothing selected for dispatch")
	}

	c.logger.Info().Str("channel", req.Channel).Ints("item_ids", ids).Msg("batch dispatch started")

	valid, err := c.validateSubset(ids, req.Channel)
	if err != nil {
		return Result{State: StateIdle}, err
	}
	if !valid {
		c.logger.Info().Str("channel", req.Channel).Msg("batch blocked by validation")
		return Result{State: StateIdle, Valid: false}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	results := c.dispatchAll(ctx, ids, req.Channel)
	return c.complete(req, results)
}

// validateSubset runs full validation across the subset, evaluating every
// item so all messages populate before the batch aborts.
func (c *Coordinator) validateSubset(ids []int, channel string) (bool, error) {
	valid, err := c.validator.ValidateItems(ids, false)
	if err != nil {
		return false, err
	}

	if channel == models.ChannelEmail {
		for _, id := range ids {
			ok, err := c.emails.Validate(id)
			if err != nil {
				return false, err
			}
			valid = valid && ok
		}
	}
	return valid, nil
}

// dispatchAll fires one create request per item and awaits all of them,
// annotating each with its outcome instead of propagating the first
// rejection.
func (c *Coordinator) dispatchAll(ctx context.Context, ids []int, channel string) []ItemResult {
	results := make([]ItemResult, len(ids))
	var wg sync.WaitGroup

	for i, id := range ids {
		payload, err := c.buildPayload(id, channel)
		if err != nil {
			results[i] = ItemResult{ItemID: id, Error: err.Error()}
			continue
		}

		wg.Add(1)
		go func(i, id int, payload models.InputData) {
			defer wg.Done()
			results[i] = c.dispatchOne(ctx, id, channel, payload)
		}(i, id, payload)
	}

	wg.Wait()
	return results
}

func (c *Coordinator) dispatchOne(ctx context.Context, id int, channel string, payload models.InputData) ItemResult {
	out, err := c.data.CreateCorrespondenceOutput(ctx, payload)
	if err != nil {
		c.logger.Warn().Err(err).Int("item_id", id).Str("channel", channel).Msg("item dispatch rejected")
		return ItemResult{ItemID: id, Error: err.Error()}
	}

	if channel == models.ChannelEmail && payload.Email != nil {
		if err := c.sender.SendCorrespondence(*payload.Email); err != nil {
			c.logger.Warn().Err(err).Int("item_id", id).Msg("email send rejected")
			return ItemResult{ItemID: id, Error: err.Error()}
		}
	}

	return ItemResult{ItemID: id, ApplicationObjectID: out.ApplicationObjectID, Succeeded: true}
}

// buildPayload flattens one item into its channel-specific dispatch payload.
func (c *Coordinator) buildPayload(id int, channel string) (models.InputData, error) {
	var payload models.InputData
	var buildErr error

	err := c.store.View(id, func(it *models.CorrespondenceItem) {
		payload, buildErr = models.BuildInputData(it)
		if buildErr != nil {
			return
		}

		switch channel {
		case models.ChannelEmail:
			payload.Email = &models.EmailPayload{
				Recipients:    append([]string(nil), it.Email.Recipients...),
				Subject:       it.Email.Subject,
				TemplateKey:   it.Email.TemplateKey,
				SenderAddress: it.Email.SenderAddress,
				BodyHTML:      it.Email.PreviewHTML,
				BodyText:      it.Email.PreviewText,
			}
		case models.ChannelPrint:
			dest := &models.PrintPayload{}
			if it.DialogDefaults.Data != nil {
				// exactly one destination travels, matching the printer type
				switch it.PrintType {
				case models.PrinterTypeQueue:
					dest.PrintQueue = it.DialogDefaults.Data.PrintQueue
				case models.PrinterTypeQueueSpool:
					dest.PrintQueueSpool = it.DialogDefaults.Data.PrintQueueSpool
				default:
					dest.Printer = it.DialogDefaults.Data.Printer
				}
			}
			payload.Print = dest
		}
	})
	if err != nil {
		return models.InputData{}, err
	}
	if buildErr != nil {
		return models.InputData{}, buildErr
	}
	return payload, nil
}

// complete marks resolved items, counts successes and builds the navigation
// payload when the action asks for one.
func (c *Coordinator) complete(req Request, results []ItemResult) (Result, error) {
	result := Result{State: StateCompleted, Valid: true, Items: results}

	for _, r := range results {
		if !r.Succeeded {
			continue
		}
		result.SuccessCount++

		appObjID := r.ApplicationObjectID
		err := c.store.Update(r.ItemID, func(it *models.CorrespondenceItem) {
			it.ApplicationObjectID = appObjID
			it.PDFPath = models.PDFPath(appObjID)
			switch req.Channel {
			case models.ChannelEmail:
				it.State.EmailSent = true
			case models.ChannelPrint:
				it.State.Printed = true
			}
		})
		if err != nil {
			// the item disappeared mid-batch; its output still counts
			c.logger.Warn().Err(err).Int("item_id", r.ItemID).Msg("dispatched item no longer present")
		}

		if c.triggersNavigation(req.Action) {
			result.Navigation = append(result.Navigation, NavigationTarget{
				ApplicationObjectID: appObjID,
				ItemID:              r.ItemID,
			})
		}
	}

	c.logger.Info().Str("channel", req.Channel).Int("success_count", result.SuccessCount).
		Int("total", len(results)).Msg("batch dispatch completed")
	return result, nil
}

func (c *Coordinator) triggersNavigation(action string) bool {
	for _, a := range c.navActions {
		if a == action {
			return true
		}
	}
	return false
}
