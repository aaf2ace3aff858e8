package normalisers

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/custodia-labs/docledger/internal/core/domain"
	"github.com/custodia-labs/docledger/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ExtractionNormaliser = (*Extractor)(nil)

// Top-level payload sections.
const (
	keyDocumentInfo = "documentInfo"
	keyParties      = "parties"
	keyTotals       = "totals"
	keyTableData    = "tableData"
	keySignatures   = "signatures"
	keyOtherFields  = "otherFields"
)

// sectionShapes lists the JSON kinds each optional section may have.
var sectionShapes = []struct {
	key   string
	kinds []domain.Kind
}{
	{keyParties, []domain.Kind{domain.KindObject, domain.KindArray}},
	{keyTotals, []domain.Kind{domain.KindObject}},
	{keyTableData, []domain.Kind{domain.KindObject, domain.KindArray}},
	{keySignatures, []domain.Kind{domain.KindArray}},
	{keyOtherFields, []domain.Kind{domain.KindArray, domain.KindObject}},
}

// leafKeys are the keys allowed in an object that wraps one value with its display metadata.
var leafKeys = map[string]bool{
	"value": true, "label": true, "displayLabel": true, "display_label": true, "title": true,
	"code": true, "key": true, "page": true, "bbox": true, "boundingBox": true,
	"bounding_box": true, "confidence": true,
}

// Extractor flattens extraction payloads into records and tags each field
// as known or unknown through the catalog.
type Extractor struct {
	resolver driven.FieldResolver
}

// NewExtractor creates an Extractor. A nil resolver leaves every field unknown.
func NewExtractor(resolver driven.FieldResolver) *Extractor {
	return &Extractor{resolver: resolver}
}

// Validate checks that documentInfo is present and that every known section has its shape.
func (e *Extractor) Validate(payload *domain.Node) error {
	if !payload.IsObject() {
		return domain.NewValidationError("payload", "must be a JSON object")
	}
	if !payload.Has(keyDocumentInfo) || payload.Get(keyDocumentInfo).IsNull() {
		return domain.NewValidationError(keyDocumentInfo, "section is required")
	}
	if !payload.Get(keyDocumentInfo).IsObject() {
		return domain.NewValidationError(keyDocumentInfo, "must be an object")
	}

	for _, shape := range sectionShapes {
		v := payload.Get(shape.key)
		if v.IsNull() {
			continue
		}
		ok := false
		for _, k := range shape.kinds {
			if v.Kind == k {
				ok = true
			}
		}
		if !ok {
			return domain.NewValidationError(shape.key, fmt.Sprintf("unexpected %s", v.Kind))
		}
	}
	return nil
}

// Flatten validates payload and emits its records. Unknown fields and
// unknown top-level sections are kept in section "other".
func (e *Extractor) Flatten(ctx context.Context, payload *domain.Node) (*domain.Extraction, error) {
	if err := e.Validate(payload); err != nil {
		return nil, err
	}

	f := &flattener{out: &domain.Extraction{}}
	for _, m := range payload.Members {
		switch m.Key {
		case keyDocumentInfo:
			f.walk(domain.SectionHeader, keyDocumentInfo, "", m.Value)
		case keyParties:
			f.parties(m.Value)
		case keyTotals:
			f.walk(domain.SectionTotals, keyTotals, "", m.Value)
		case keyTableData:
			f.tableData(m.Value)
		case keySignatures:
			f.signatures(m.Value)
		case keyOtherFields:
			if m.Value.IsArray() {
				f.detailList(domain.SectionOther, keyOtherFields, "", m.Value)
			} else {
				f.walk(domain.SectionOther, keyOtherFields, "", m.Value)
			}
		default:
			f.walkMember(domain.SectionOther, "", "", m.Key, m.Value)
		}
	}
	f.out.Hint = documentHint(payload)

	if err := e.resolveFields(ctx, f.out.Fields); err != nil {
		return nil, err
	}
	return f.out, nil
}

// resolveFields looks each field up by code, then by label within its section.
func (e *Extractor) resolveFields(ctx context.Context, fields []domain.FieldRecord) error {
	if e.resolver == nil {
		return nil
	}

	seen := make(map[string]*string)
	for i := range fields {
		rec := &fields[i]

		if domain.ValidFieldCode(rec.Code) {
			id, err := e.lookup(seen, "code:"+rec.Code, func() (*domain.FieldDefinition, error) {
				return e.resolver.ResolveField(ctx, rec.Code)
			})
			if err != nil {
				return err
			}
			if id != nil {
				rec.FieldID = id
				continue
			}
		}

		id, err := e.lookup(seen, "label:"+string(rec.Section)+":"+domain.NormalizeLabel(rec.Label), func() (*domain.FieldDefinition, error) {
			return e.resolver.ResolveLabel(ctx, rec.Section, rec.Label)
		})
		if err != nil {
			return err
		}
		rec.FieldID = id
	}
	return nil
}

func (e *Extractor) lookup(seen map[string]*string, key string, fn func() (*domain.FieldDefinition, error)) (*string, error) {
	if id, ok := seen[key]; ok {
		return id, nil
	}
	def, err := fn()
	switch {
	case errors.Is(err, domain.ErrNotFound):
		seen[key] = nil
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("resolve field: %w", err)
	}
	id := def.ID
	seen[key] = &id
	return &id, nil
}

type flattener struct {
	out *domain.Extraction
}

// walk flattens every member of an object node.
func (f *flattener) walk(section domain.FieldSection, path, codePrefix string, node *domain.Node) {
	if !node.IsObject() {
		f.walkItem(section, path, codePrefix, path, node)
		return
	}
	for _, m := range node.Members {
		f.walkMember(section, path, codePrefix, m.Key, m.Value)
	}
}

func (f *flattener) walkMember(section domain.FieldSection, parent, codePrefix, key string, value *domain.Node) {
	path := joinPath(parent, key)
	code := codePrefix + snakeCase(key)

	switch {
	case value.IsNull() || value.IsScalar():
		f.emit(section, path, code, key, value)
	case isLeafObject(value):
		f.emitLeaf(section, path, codePrefix, code, key, value)
	case value.IsObject():
		f.walk(section, path, code+"_", value)
	case isDetailArray(value):
		f.detailList(section, path, code+"_", value)
	case isRowArray(value):
		f.addTable(path, nil, value)
	default:
		for i, item := range value.Items {
			f.walkItem(section, fmt.Sprintf("%s[%d]", path, i), code, key, item)
		}
	}
}

// walkItem flattens one array element whose field code is code.
func (f *flattener) walkItem(section domain.FieldSection, path, code, label string, item *domain.Node) {
	switch {
	case item.IsNull() || item.IsScalar():
		f.emit(section, path, code, label, item)
	case isLeafObject(item):
		f.emitLeaf(section, path, "", code, label, item)
	case item.IsObject():
		f.walk(section, path, code+"_", item)
	default:
		for i, child := range item.Items {
			f.walkItem(section, fmt.Sprintf("%s[%d]", path, i), code, label, child)
		}
	}
}

func (f *flattener) emit(section domain.FieldSection, path, code, label string, value *domain.Node) {
	f.out.Fields = append(f.out.Fields, domain.FieldRecord{
		Section: section,
		Path:    path,
		Code:    code,
		Label:   label,
		Value:   value.Value(),
	})
}

// emitLeaf emits an embedded-label leaf such as {"value": "INV-1", "label": "Invoice No"}.
// The embedded label wins over the key, an embedded code over the key-derived code.
func (f *flattener) emitLeaf(section domain.FieldSection, path, codePrefix, code, key string, leaf *domain.Node) {
	label := key
	if l := firstText(leaf, "label", "displayLabel", "display_label", "title"); l != "" {
		label = l
	}
	if c := firstText(leaf, "code", "key"); c != "" {
		code = codePrefix + snakeCase(c)
	}

	rec := domain.FieldRecord{
		Section: section,
		Path:    path,
		Code:    code,
		Label:   label,
		Value:   leaf.Get("value").Value(),
	}
	if p := leaf.Get("page"); p != nil && p.Kind == domain.KindNumber {
		if page, err := strconv.Atoi(p.Text); err == nil {
			rec.Page = &page
		}
	}
	for _, k := range []string{"bbox", "boundingBox", "bounding_box"} {
		if b := leaf.Get(k); !b.IsNull() {
			rec.BBox, _ = b.MarshalJSON()
			break
		}
	}
	f.out.Fields = append(f.out.Fields, rec)
}

// detailList flattens [{label, value}] lists. The label (or name/key) names the field.
func (f *flattener) detailList(section domain.FieldSection, path, codePrefix string, list *domain.Node) {
	for i, item := range list.Items {
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		if !isDetailItem(item) {
			f.walkItem(section, itemPath, codePrefix+"item", lastSegment(path), item)
			continue
		}

		label := firstText(item, "label", "displayLabel", "display_label", "name", "title", "key")
		codeSource := firstText(item, "code", "key")
		if codeSource == "" {
			codeSource = label
		}
		code := codePrefix + snakeCase(codeSource)
		if code == codePrefix {
			code = codePrefix + "item"
		}

		rec := domain.FieldRecord{
			Section: section,
			Path:    itemPath,
			Code:    code,
			Label:   label,
			Value:   item.Get("value").Value(),
		}
		if p := item.Get("page"); p != nil && p.Kind == domain.KindNumber {
			if page, err := strconv.Atoi(p.Text); err == nil {
				rec.Page = &page
			}
		}
		if b := item.Get("bbox"); !b.IsNull() {
			rec.BBox, _ = b.MarshalJSON()
		}
		f.out.Fields = append(f.out.Fields, rec)
	}
}

func (f *flattener) signatures(node *domain.Node) {
	for i, item := range node.Items {
		f.out.Signatures = append(f.out.Signatures, domain.SignatureRecord{Position: i, Payload: item})
	}
}

// isLeafObject reports whether n wraps a single value with display metadata.
func isLeafObject(n *domain.Node) bool {
	if !n.IsObject() || !n.Has("value") {
		return false
	}
	for _, m := range n.Members {
		if !leafKeys[m.Key] {
			return false
		}
	}
	return true
}

// isDetailItem is a leaf object that may also carry a "name".
func isDetailItem(n *domain.Node) bool {
	if !n.IsObject() || !n.Has("value") {
		return false
	}
	named := false
	for _, m := range n.Members {
		switch {
		case m.Key == "name":
			named = true
		case !leafKeys[m.Key]:
			return false
		case m.Key == "label" || m.Key == "displayLabel" || m.Key == "display_label" || m.Key == "key" || m.Key == "title":
			named = true
		}
	}
	return named
}

func isDetailArray(n *domain.Node) bool {
	if !n.IsArray() || len(n.Items) == 0 {
		return false
	}
	for _, item := range n.Items {
		if !isDetailItem(item) {
			return false
		}
	}
	return true
}

// isRowArray reports an array of plain objects, which is treated as a table.
func isRowArray(n *domain.Node) bool {
	if !n.IsArray() || len(n.Items) == 0 {
		return false
	}
	for _, item := range n.Items {
		if !item.IsObject() || isLeafObject(item) {
			return false
		}
	}
	return true
}

func documentHint(payload *domain.Node) domain.DocumentHint {
	info := payload.Get(keyDocumentInfo)
	hint := domain.DocumentHint{
		TypeCode: firstText(info, "documentTypeCode", "typeCode", "document_type_code"),
		TypeHint: firstText(info, "documentType", "document_type", "docType", "type", "documentTitle", "title"),
		Currency: firstText(info, "currency", "currencyCode", "currency_code"),
		Language: firstText(info, "language", "lang"),
	}
	if hint.Currency == "" {
		hint.Currency = firstText(payload.Get(keyTotals), "currency", "currencyCode")
	}
	return hint
}
