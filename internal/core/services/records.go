package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/custodia-labs/docledger/internal/core/domain"
	"github.com/custodia-labs/docledger/internal/core/ports/driven"
)

// insertRecords writes the raw child rows of a new document.
func insertRecords(ctx context.Context, records driven.RecordStore, documentID string, ext *domain.Extraction, now time.Time) error {
	if len(ext.Fields) > 0 {
		fields := make([]*domain.DocumentField, 0, len(ext.Fields))
		for i, rec := range ext.Fields {
			f := newField(documentID, rec, i, now)
			f.RawValue = rec.Value
			fields = append(fields, f)
		}
		if err := records.InsertFields(ctx, fields); err != nil {
			return fmt.Errorf("insert fields: %w", err)
		}
	}

	if len(ext.Tables) > 0 {
		tables := make([]*domain.DocumentTableSection, 0, len(ext.Tables))
		for _, rec := range ext.Tables {
			tables = append(tables, &domain.DocumentTableSection{
				DocumentID: documentID,
				Name:       rec.Name,
				Position:   rec.Position,
				ColumnsRaw: rec.Columns,
				RowsRaw:    rec.Rows,
				CreatedAt:  now,
			})
		}
		if err := records.InsertTables(ctx, tables); err != nil {
			return fmt.Errorf("insert tables: %w", err)
		}
	}

	if len(ext.Signatures) > 0 {
		signatures := make([]*domain.DocumentSignature, 0, len(ext.Signatures))
		for _, rec := range ext.Signatures {
			raw, err := nodeJSON(rec.Payload)
			if err != nil {
				return err
			}
			signatures = append(signatures, &domain.DocumentSignature{
				DocumentID: documentID,
				Position:   rec.Position,
				Raw:        raw,
				CreatedAt:  now,
			})
		}
		if err := records.InsertSignatures(ctx, signatures); err != nil {
			return fmt.Errorf("insert signatures: %w", err)
		}
	}
	return nil
}

// applyApproval writes the approved columns of every child row. Rows are
// matched by field path, by table name and occurrence, and by signature
// position. Approved-only rows are inserted with null raw values; raw rows
// missing from the approved payload get a null approved value.
func applyApproval(ctx context.Context, records driven.RecordStore, documentID string, ext *domain.Extraction, actor string, now time.Time) error {
	if err := approveFields(ctx, records, documentID, ext.Fields, actor, now); err != nil {
		return err
	}
	if err := approveTables(ctx, records, documentID, ext.Tables, actor, now); err != nil {
		return err
	}
	return approveSignatures(ctx, records, documentID, ext.Signatures, actor, now)
}

func approveFields(ctx context.Context, records driven.RecordStore, documentID string, approved []domain.FieldRecord, actor string, now time.Time) error {
	existing, err := records.ListFields(ctx, documentID)
	if err != nil {
		return fmt.Errorf("list fields: %w", err)
	}

	byPath := make(map[string][]*domain.DocumentField)
	next := 0
	for _, f := range existing {
		byPath[f.Path] = append(byPath[f.Path], f)
		if f.Position >= next {
			next = f.Position + 1
		}
	}

	matched := make(map[string]bool)
	var added []*domain.DocumentField
	for _, rec := range approved {
		candidates := byPath[rec.Path]
		if len(candidates) == 0 {
			f := newField(documentID, rec, next, now)
			next++
			f.ApprovedValue = rec.Value
			f.IsCorrected = domain.ValuesDiffer(nil, rec.Value)
			f.ApprovedBy = &actor
			f.ApprovedAt = &now
			added = append(added, f)
			continue
		}
		f := candidates[0]
		byPath[rec.Path] = candidates[1:]
		matched[f.ID] = true

		f.ApprovedValue = rec.Value
		f.IsCorrected = domain.ValuesDiffer(f.RawValue, rec.Value)
		f.ApprovedBy = &actor
		f.ApprovedAt = &now
		if err := records.UpdateFieldApproval(ctx, f); err != nil {
			return fmt.Errorf("approve field %s: %w", f.Path, err)
		}
	}

	for _, f := range existing {
		if matched[f.ID] {
			continue
		}
		f.ApprovedValue = nil
		f.IsCorrected = domain.ValuesDiffer(f.RawValue, nil)
		f.ApprovedBy = &actor
		f.ApprovedAt = &now
		if err := records.UpdateFieldApproval(ctx, f); err != nil {
			return fmt.Errorf("approve field %s: %w", f.Path, err)
		}
	}

	if len(added) > 0 {
		if err := records.InsertFields(ctx, added); err != nil {
			return fmt.Errorf("insert approved fields: %w", err)
		}
	}
	return nil
}

func approveTables(ctx context.Context, records driven.RecordStore, documentID string, approved []domain.TableRecord, actor string, now time.Time) error {
	existing, err := records.ListTables(ctx, documentID)
	if err != nil {
		return fmt.Errorf("list tables: %w", err)
	}

	byName := make(map[string][]*domain.DocumentTableSection)
	next := 0
	for _, t := range existing {
		byName[t.Name] = append(byName[t.Name], t)
		if t.Position >= next {
			next = t.Position + 1
		}
	}

	matched := make(map[string]bool)
	var added []*domain.DocumentTableSection
	for _, rec := range approved {
		candidates := byName[rec.Name]
		if len(candidates) == 0 {
			added = append(added, &domain.DocumentTableSection{
				DocumentID:      documentID,
				Name:            rec.Name,
				Position:        next,
				ColumnsRaw:      domain.NewColumnMapping(),
				RowsRaw:         []domain.Row{},
				ColumnsApproved: rec.Columns,
				RowsApproved:    rec.Rows,
				IsCorrected:     true,
				ApprovedBy:      &actor,
				ApprovedAt:      &now,
				CreatedAt:       now,
			})
			next++
			continue
		}
		t := candidates[0]
		byName[rec.Name] = candidates[1:]
		matched[t.ID] = true

		t.ColumnsApproved = rec.Columns
		t.RowsApproved = rec.Rows
		t.IsCorrected = !t.ColumnsRaw.Equal(rec.Columns) || !domain.RowsEqual(t.RowsRaw, rec.Rows)
		t.ApprovedBy = &actor
		t.ApprovedAt = &now
		if err := records.UpdateTableApproval(ctx, t); err != nil {
			return fmt.Errorf("approve table %s: %w", t.Name, err)
		}
	}

	for _, t := range existing {
		if matched[t.ID] {
			continue
		}
		t.ColumnsApproved = nil
		t.RowsApproved = nil
		t.IsCorrected = t.ColumnsRaw.Len() > 0 || len(t.RowsRaw) > 0
		t.ApprovedBy = &actor
		t.ApprovedAt = &now
		if err := records.UpdateTableApproval(ctx, t); err != nil {
			return fmt.Errorf("approve table %s: %w", t.Name, err)
		}
	}

	if len(added) > 0 {
		if err := records.InsertTables(ctx, added); err != nil {
			return fmt.Errorf("insert approved tables: %w", err)
		}
	}
	return nil
}

func approveSignatures(ctx context.Context, records driven.RecordStore, documentID string, approved []domain.SignatureRecord, actor string, now time.Time) error {
	existing, err := records.ListSignatures(ctx, documentID)
	if err != nil {
		return fmt.Errorf("list signatures: %w", err)
	}

	byPosition := make(map[int]*domain.DocumentSignature, len(existing))
	for _, sig := range existing {
		byPosition[sig.Position] = sig
	}

	matched := make(map[string]bool)
	var added []*domain.DocumentSignature
	for _, rec := range approved {
		payload, err := nodeJSON(rec.Payload)
		if err != nil {
			return err
		}
		sig, ok := byPosition[rec.Position]
		if !ok {
			added = append(added, &domain.DocumentSignature{
				DocumentID:  documentID,
				Position:    rec.Position,
				Approved:    payload,
				IsCorrected: !rec.Payload.IsNull(),
				ApprovedBy:  &actor,
				ApprovedAt:  &now,
				CreatedAt:   now,
			})
			continue
		}
		matched[sig.ID] = true

		sig.Approved = payload
		sig.IsCorrected = !jsonEqual(sig.Raw, payload)
		sig.ApprovedBy = &actor
		sig.ApprovedAt = &now
		if err := records.UpdateSignatureApproval(ctx, sig); err != nil {
			return fmt.Errorf("approve signature %d: %w", sig.Position, err)
		}
	}

	for _, sig := range existing {
		if matched[sig.ID] {
			continue
		}
		sig.Approved = nil
		sig.IsCorrected = !jsonEqual(sig.Raw, nil)
		sig.ApprovedBy = &actor
		sig.ApprovedAt = &now
		if err := records.UpdateSignatureApproval(ctx, sig); err != nil {
			return fmt.Errorf("approve signature %d: %w", sig.Position, err)
		}
	}

	if len(added) > 0 {
		if err := records.InsertSignatures(ctx, added); err != nil {
			return fmt.Errorf("insert approved signatures: %w", err)
		}
	}
	return nil
}

func newField(documentID string, rec domain.FieldRecord, position int, now time.Time) *domain.DocumentField {
	return &domain.DocumentField{
		DocumentID: documentID,
		FieldID:    rec.FieldID,
		Section:    rec.Section,
		Path:       rec.Path,
		Code:       rec.Code,
		RawLabel:   rec.Label,
		Page:       rec.Page,
		BBox:       rec.BBox,
		Position:   position,
		CreatedAt:  now,
	}
}

func nodeJSON(n *domain.Node) (json.RawMessage, error) {
	if n == nil {
		return json.RawMessage("null"), nil
	}
	b, err := n.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode signature: %w", err)
	}
	return b, nil
}

// jsonEqual compares two JSON documents structurally. Absent and null are equal.
func jsonEqual(a, b json.RawMessage) bool {
	na, errA := parseOptional(a)
	nb, errB := parseOptional(b)
	if errA != nil || errB != nil {
		return string(a) == string(b)
	}
	return na.Equal(nb)
}

func parseOptional(raw json.RawMessage) (*domain.Node, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	return domain.ParsePayload(raw)
}
