package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/cucumber/godog"

	"github.com/custodia-labs/docledger/internal/core/domain"
	"github.com/custodia-labs/docledger/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/docledger/internal/core/ports/driving"
	"github.com/custodia-labs/docledger/internal/normalisers"
)

const lifecycleFeature = `Feature: document lifecycle
  Reviewers correct extractions; every version of the payload is kept.

  Scenario: approving corrections keeps the raw extraction
    Given an invoice with line item "A1" of quantity "2"
    When the reviewer approves line item "A1" with quantity "3"
    Then the document status is "approved"
    And there is 1 raw snapshot
    And there is 1 approved snapshot
    And the table is corrected
    And the raw quantity of "A1" is "2"

  Scenario: re-approval after rejection adds a version
    Given an invoice with line item "A1" of quantity "2"
    When the reviewer approves line item "A1" with quantity "2"
    And the reviewer rejects the document
    And the reviewer approves line item "A1" with quantity "5"
    Then the document status is "approved"
    And there are 2 approved snapshots
    And approved snapshot 2 has quantity "5"

  Scenario: a parsed document cannot be rejected
    Given an invoice with line item "A1" of quantity "2"
    When the reviewer rejects the document
    Then the request fails with an invalid transition
    And the document status is "parsed"
`

type lifecycleWorld struct {
	uow *mocks.MockUnitOfWork
	svc driving.DocumentService
	doc *domain.Document
	err error
}

func (w *lifecycleWorld) reset() {
	w.uow = mocks.NewMockUnitOfWork()
	w.svc = NewDocumentService(DocumentServiceConfig{
		Store:      w.uow,
		Normaliser: normalisers.NewExtractor(nil),
		Detectors:  normalisers.DefaultRegistry(),
	})
	w.doc = nil
	w.err = nil
}

func linePayload(sku, qty string) string {
	return fmt.Sprintf(`{
		"documentInfo": {"documentNumber": "INV-1"},
		"tableData": {"columnMapping": {"sku": "Art.#", "qty": "Qty"}, "lineItems": [{"sku": %q, "qty": %q}]}
	}`, sku, qty)
}

func (w *lifecycleWorld) anInvoice(ctx context.Context, sku, qty string) error {
	payload, err := domain.ParsePayload([]byte(linePayload(sku, qty)))
	if err != nil {
		return err
	}
	w.doc, err = w.svc.SaveRaw(ctx, driving.SaveRawRequest{FileRef: "scan.pdf", Payload: payload})
	return err
}

func (w *lifecycleWorld) approves(ctx context.Context, sku, qty string) error {
	payload, err := domain.ParsePayload([]byte(linePayload(sku, qty)))
	if err != nil {
		return err
	}
	_, err = w.svc.SaveApproved(ctx, w.doc.ID, payload, "reviewer")
	return err
}

func (w *lifecycleWorld) rejects(ctx context.Context) error {
	_, w.err = w.svc.Reject(ctx, w.doc.ID, "reviewer")
	return nil
}

func (w *lifecycleWorld) statusIs(ctx context.Context, want string) error {
	detail, err := w.svc.Get(ctx, w.doc.ID)
	if err != nil {
		return err
	}
	if string(detail.Document.Status) != want {
		return fmt.Errorf("status is %s, want %s", detail.Document.Status, want)
	}
	return nil
}

func (w *lifecycleWorld) snapshotCount(ctx context.Context, want int, kind string) error {
	history, err := w.svc.History(ctx, w.doc.ID, domain.SnapshotType(kind))
	if err != nil {
		return err
	}
	if len(history) != want {
		return fmt.Errorf("%d %s snapshots, want %d", len(history), kind, want)
	}
	for i, snap := range history {
		if snap.Version != i+1 {
			return fmt.Errorf("snapshot %d has version %d", i, snap.Version)
		}
	}
	return nil
}

func (w *lifecycleWorld) approvedSnapshotQty(ctx context.Context, version int, qty string) error {
	history, err := w.svc.History(ctx, w.doc.ID, domain.SnapshotApproved)
	if err != nil {
		return err
	}
	if version > len(history) {
		return fmt.Errorf("no approved snapshot %d", version)
	}
	payload, err := domain.ParsePayload(history[version-1].Payload)
	if err != nil {
		return err
	}
	got := payload.Get("tableData").Get("lineItems").Items[0].Get("qty").Value()
	if got == nil || *got != qty {
		return fmt.Errorf("approved snapshot %d quantity is %v, want %s", version, got, qty)
	}
	return nil
}

func (w *lifecycleWorld) table(ctx context.Context) (*domain.DocumentTableSection, error) {
	records, err := w.svc.Records(ctx, w.doc.ID)
	if err != nil {
		return nil, err
	}
	if len(records.Tables) != 1 {
		return nil, fmt.Errorf("%d tables, want 1", len(records.Tables))
	}
	return records.Tables[0], nil
}

func (w *lifecycleWorld) tableCorrected(ctx context.Context) error {
	table, err := w.table(ctx)
	if err != nil {
		return err
	}
	if !table.IsCorrected {
		return errors.New("table is not marked corrected")
	}
	return nil
}

func (w *lifecycleWorld) rawQty(ctx context.Context, sku, qty string) error {
	table, err := w.table(ctx)
	if err != nil {
		return err
	}
	for _, row := range table.RowsRaw {
		if v := row["sku"]; v != nil && *v == sku {
			if got := row["qty"]; got == nil || *got != qty {
				return fmt.Errorf("raw quantity of %s is %v, want %s", sku, got, qty)
			}
			return nil
		}
	}
	return fmt.Errorf("no raw row for %s", sku)
}

func (w *lifecycleWorld) failsWithInvalidTransition() error {
	if !errors.Is(w.err, domain.ErrInvalidTransition) {
		return fmt.Errorf("got %v, want invalid transition", w.err)
	}
	return nil
}

func initializeLifecycleScenario(sc *godog.ScenarioContext) {
	w := &lifecycleWorld{}
	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		w.reset()
		return ctx, nil
	})

	sc.Step(`^an invoice with line item "([^"]*)" of quantity "([^"]*)"$`, w.anInvoice)
	sc.Step(`^the reviewer approves line item "([^"]*)" with quantity "([^"]*)"$`, w.approves)
	sc.Step(`^the reviewer rejects the document$`, w.rejects)
	sc.Step(`^the document status is "([^"]*)"$`, w.statusIs)
	sc.Step(`^there (?:is|are) (\d+) (raw|approved) snapshots?$`, func(ctx context.Context, n, kind string) error {
		want, err := strconv.Atoi(n)
		if err != nil {
			return err
		}
		return w.snapshotCount(ctx, want, kind)
	})
	sc.Step(`^approved snapshot (\d+) has quantity "([^"]*)"$`, w.approvedSnapshotQty)
	sc.Step(`^the table is corrected$`, w.tableCorrected)
	sc.Step(`^the raw quantity of "([^"]*)" is "([^"]*)"$`, w.rawQty)
	sc.Step(`^the request fails with an invalid transition$`, w.failsWithInvalidTransition)
}

func TestDocumentLifecycleFeature(t *testing.T) {
	suite := godog.TestSuite{
		Name:                "document lifecycle",
		ScenarioInitializer: initializeLifecycleScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Strict:   true,
			TestingT: t,
			FeatureContents: []godog.Feature{
				{Name: "lifecycle.feature", Contents: []byte(lifecycleFeature)},
			},
		},
	}
	if suite.Run() != 0 {
		t.Fatal("lifecycle feature failed")
	}
}
