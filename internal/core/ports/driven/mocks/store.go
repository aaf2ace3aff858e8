package mocks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docledger/internal/core/domain"
	"github.com/custodia-labs/docledger/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.UnitOfWork = (*MockUnitOfWork)(nil)

// MockUnitOfWork is an in-memory transactional store for testing.
// Transactions run one at a time against a copy of the state that replaces
// the committed state only when the callback succeeds.
type MockUnitOfWork struct {
	txMu    sync.Mutex
	mu      sync.RWMutex
	state   *memState
	commits int

	// FailFn, when set, is called before every write with the operation name
	// (e.g. "documents.create", "snapshots.append", "commit").
	// A non-nil error aborts the operation.
	FailFn func(op string) error

	// PingFn overrides Ping when set.
	PingFn func() error
}

// NewMockUnitOfWork creates an empty store.
func NewMockUnitOfWork() *MockUnitOfWork {
	return &MockUnitOfWork{state: newMemState()}
}

type memState struct {
	files      map[string]*domain.SourceFile
	documents  map[string]*domain.Document
	snapshots  []*domain.Snapshot
	fields     []*domain.DocumentField
	tables     []*domain.DocumentTableSection
	signatures []*domain.DocumentSignature
	companies  map[string]*domain.Company
	fieldDefs  map[string]*domain.FieldDefinition
	docTypes   map[string]*domain.DocumentType
}

func newMemState() *memState {
	return &memState{
		files:     make(map[string]*domain.SourceFile),
		documents: make(map[string]*domain.Document),
		companies: make(map[string]*domain.Company),
		fieldDefs: make(map[string]*domain.FieldDefinition),
		docTypes:  make(map[string]*domain.DocumentType),
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.files {
		cp := *v
		c.files[k] = &cp
	}
	for k, v := range s.documents {
		c.documents[k] = copyDocument(v)
	}
	for _, v := range s.snapshots {
		cp := *v
		c.snapshots = append(c.snapshots, &cp)
	}
	for _, v := range s.fields {
		cp := *v
		c.fields = append(c.fields, &cp)
	}
	for _, v := range s.tables {
		c.tables = append(c.tables, copyTable(v))
	}
	for _, v := range s.signatures {
		cp := *v
		c.signatures = append(c.signatures, &cp)
	}
	for k, v := range s.companies {
		c.companies[k] = copyCompany(v)
	}
	for k, v := range s.fieldDefs {
		c.fieldDefs[k] = copyFieldDef(v)
	}
	for k, v := range s.docTypes {
		cp := *v
		c.docTypes[k] = &cp
	}
	return c
}

// WithinTx runs fn against a private copy and commits it when fn succeeds
// and ctx is still live.
func (m *MockUnitOfWork) WithinTx(ctx context.Context, fn func(tx driven.Repositories) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.RLock()
	work := m.state.clone()
	m.mu.RUnlock()

	if err := fn(&memRepos{uow: m, state: work, tx: true}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.fail("commit"); err != nil {
		return err
	}

	m.mu.Lock()
	m.state = work
	m.commits++
	m.mu.Unlock()
	return nil
}

// Commits returns the number of committed transactions.
func (m *MockUnitOfWork) Commits() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.commits
}

func (m *MockUnitOfWork) Files() driven.FileStore         { return m.repos().Files() }
func (m *MockUnitOfWork) Documents() driven.DocumentStore { return m.repos().Documents() }
func (m *MockUnitOfWork) Snapshots() driven.SnapshotStore { return m.repos().Snapshots() }
func (m *MockUnitOfWork) Records() driven.RecordStore     { return m.repos().Records() }
func (m *MockUnitOfWork) Companies() driven.CompanyStore  { return m.repos().Companies() }
func (m *MockUnitOfWork) Catalog() driven.CatalogStore    { return m.repos().Catalog() }

// Search returns the in-memory search queries.
func (m *MockUnitOfWork) Search() driven.SearchStore {
	return &memSearch{memRepos: m.repos()}
}

// Ping checks backend health.
func (m *MockUnitOfWork) Ping(ctx context.Context) error {
	if m.PingFn != nil {
		return m.PingFn()
	}
	return nil
}

// SeedField registers a catalog definition (for test setup).
func (m *MockUnitOfWork) SeedField(code string, section domain.FieldSection, labels ...domain.FieldLabel) *domain.FieldDefinition {
	def, _ := m.Catalog().GetOrCreateField(context.Background(), &domain.FieldDefinition{
		Code:     code,
		Section:  section,
		DataType: domain.DataTypeText,
		Labels:   labels,
	})
	return def
}

// SeedCompany stores a company as-is (for test setup).
func (m *MockUnitOfWork) SeedCompany(c *domain.Company) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.companies[c.ID] = copyCompany(c)
}

// CompanyCount returns the number of stored companies.
func (m *MockUnitOfWork) CompanyCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.state.companies)
}

// DocumentCount returns the number of stored documents.
func (m *MockUnitOfWork) DocumentCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.state.documents)
}

// FileCount returns the number of stored source files.
func (m *MockUnitOfWork) FileCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.state.files)
}

func (m *MockUnitOfWork) repos() *memRepos {
	return &memRepos{uow: m}
}

func (m *MockUnitOfWork) fail(op string) error {
	if m.FailFn != nil {
		return m.FailFn(op)
	}
	return nil
}

// memRepos is bound either to a transaction copy (tx) or to the committed state.
type memRepos struct {
	uow   *MockUnitOfWork
	state *memState
	tx    bool
}

func (r *memRepos) Files() driven.FileStore         { return &memFiles{r} }
func (r *memRepos) Documents() driven.DocumentStore { return &memDocuments{r} }
func (r *memRepos) Snapshots() driven.SnapshotStore { return &memSnapshots{r} }
func (r *memRepos) Records() driven.RecordStore     { return &memRecords{r} }
func (r *memRepos) Companies() driven.CompanyStore  { return &memCompanies{r} }
func (r *memRepos) Catalog() driven.CatalogStore    { return &memCatalog{r} }

func (r *memRepos) read(fn func(s *memState)) {
	if r.tx {
		fn(r.state)
		return
	}
	r.uow.mu.RLock()
	defer r.uow.mu.RUnlock()
	fn(r.uow.state)
}

// write runs fn against the bound state. Guarded writes are refused outside a transaction.
func (r *memRepos) write(op string, guarded bool, fn func(s *memState) error) error {
	if guarded && !r.tx {
		return fmt.Errorf("%s outside transaction: %w", op, domain.ErrIntegrity)
	}
	if err := r.uow.fail(op); err != nil {
		return err
	}
	if r.tx {
		return fn(r.state)
	}
	r.uow.txMu.Lock()
	defer r.uow.txMu.Unlock()
	r.uow.mu.Lock()
	defer r.uow.mu.Unlock()
	return fn(r.uow.state)
}

// Files

type memFiles struct{ *memRepos }

func (s *memFiles) Create(ctx context.Context, file *domain.SourceFile) error {
	return s.write("files.create", true, func(st *memState) error {
		if _, exists := st.files[file.ID]; exists {
			return domain.ErrAlreadyExists
		}
		cp := *file
		st.files[file.ID] = &cp
		return nil
	})
}

func (s *memFiles) Get(ctx context.Context, id string) (*domain.SourceFile, error) {
	var out *domain.SourceFile
	s.read(func(st *memState) {
		if f, ok := st.files[id]; ok {
			cp := *f
			out = &cp
		}
	})
	if out == nil {
		return nil, domain.ErrNotFound
	}
	return out, nil
}

// Documents

type memDocuments struct{ *memRepos }

func (s *memDocuments) Create(ctx context.Context, doc *domain.Document) error {
	return s.write("documents.create", true, func(st *memState) error {
		if _, exists := st.documents[doc.ID]; exists {
			return domain.ErrAlreadyExists
		}
		if _, ok := st.files[doc.FileID]; !ok {
			return fmt.Errorf("document %s references missing file %s: %w", doc.ID, doc.FileID, domain.ErrIntegrity)
		}
		st.documents[doc.ID] = copyDocument(doc)
		return nil
	})
}

func (s *memDocuments) Get(ctx context.Context, id string) (*domain.Document, error) {
	var out *domain.Document
	s.read(func(st *memState) {
		if d, ok := st.documents[id]; ok {
			out = copyDocument(d)
		}
	})
	if out == nil {
		return nil, domain.ErrNotFound
	}
	return out, nil
}

func (s *memDocuments) GetForUpdate(ctx context.Context, id string) (*domain.Document, error) {
	if !s.tx {
		return nil, fmt.Errorf("documents.get_for_update outside transaction: %w", domain.ErrIntegrity)
	}
	return s.Get(ctx, id)
}

func (s *memDocuments) Update(ctx context.Context, doc *domain.Document) error {
	return s.write("documents.update", true, func(st *memState) error {
		if _, ok := st.documents[doc.ID]; !ok {
			return domain.ErrNotFound
		}
		st.documents[doc.ID] = copyDocument(doc)
		return nil
	})
}

func (s *memDocuments) List(ctx context.Context, opts domain.ListDocumentsOptions) ([]*domain.Document, error) {
	opts = opts.Normalize()
	var all []*domain.Document
	s.read(func(st *memState) {
		for _, d := range st.documents {
			if opts.Status != "" && d.Status != opts.Status {
				continue
			}
			all = append(all, copyDocument(d))
		}
	})
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	if opts.Offset >= len(all) {
		return []*domain.Document{}, nil
	}
	end := opts.Offset + opts.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[opts.Offset:end], nil
}

// Snapshots

type memSnapshots struct{ *memRepos }

func (s *memSnapshots) Append(ctx context.Context, snap *domain.Snapshot) error {
	if !snap.Type.IsValid() {
		return fmt.Errorf("%w: snapshot type %q", domain.ErrInvalidInput, snap.Type)
	}
	return s.write("snapshots.append", true, func(st *memState) error {
		if _, ok := st.documents[snap.DocumentID]; !ok {
			return fmt.Errorf("snapshot for missing document %s: %w", snap.DocumentID, domain.ErrIntegrity)
		}
		max := 0
		for _, existing := range st.snapshots {
			if existing.DocumentID == snap.DocumentID && existing.Type == snap.Type && existing.Version > max {
				max = existing.Version
			}
		}
		snap.Version = max + 1
		if snap.ID == "" {
			snap.ID = uuid.NewString()
		}
		if snap.CreatedAt.IsZero() {
			snap.CreatedAt = time.Now().UTC()
		}
		cp := *snap
		st.snapshots = append(st.snapshots, &cp)
		return nil
	})
}

func (s *memSnapshots) Latest(ctx context.Context, documentID string, snapshotType domain.SnapshotType) (*domain.Snapshot, error) {
	all, _ := s.List(ctx, documentID, snapshotType)
	if len(all) == 0 {
		return nil, domain.ErrNotFound
	}
	return all[len(all)-1], nil
}

func (s *memSnapshots) List(ctx context.Context, documentID string, snapshotType domain.SnapshotType) ([]*domain.Snapshot, error) {
	var out []*domain.Snapshot
	s.read(func(st *memState) {
		for _, snap := range st.snapshots {
			if snap.DocumentID == documentID && snap.Type == snapshotType {
				cp := *snap
				out = append(out, &cp)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// Records

type memRecords struct{ *memRepos }

func requireDocument(st *memState, documentID string) error {
	if _, ok := st.documents[documentID]; !ok {
		return fmt.Errorf("child row for missing document %s: %w", documentID, domain.ErrIntegrity)
	}
	return nil
}

func (s *memRecords) InsertFields(ctx context.Context, fields []*domain.DocumentField) error {
	return s.write("records.insert_fields", true, func(st *memState) error {
		for _, f := range fields {
			if err := requireDocument(st, f.DocumentID); err != nil {
				return err
			}
			if f.ID == "" {
				f.ID = uuid.NewString()
			}
			cp := *f
			st.fields = append(st.fields, &cp)
		}
		return nil
	})
}

func (s *memRecords) UpdateFieldApproval(ctx context.Context, field *domain.DocumentField) error {
	return s.write("records.update_field", true, func(st *memState) error {
		for i, f := range st.fields {
			if f.ID == field.ID {
				cp := *f
				cp.ApprovedValue = field.ApprovedValue
				cp.IsCorrected = field.IsCorrected
				cp.ApprovedBy = field.ApprovedBy
				cp.ApprovedAt = field.ApprovedAt
				st.fields[i] = &cp
				return nil
			}
		}
		return domain.ErrNotFound
	})
}

func (s *memRecords) ListFields(ctx context.Context, documentID string) ([]*domain.DocumentField, error) {
	var out []*domain.DocumentField
	s.read(func(st *memState) {
		for _, f := range st.fields {
			if f.DocumentID == documentID {
				cp := *f
				out = append(out, &cp)
			}
		}
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (s *memRecords) InsertTables(ctx context.Context, tables []*domain.DocumentTableSection) error {
	return s.write("records.insert_tables", true, func(st *memState) error {
		for _, t := range tables {
			if err := requireDocument(st, t.DocumentID); err != nil {
				return err
			}
			if t.ID == "" {
				t.ID = uuid.NewString()
			}
			st.tables = append(st.tables, copyTable(t))
		}
		return nil
	})
}

func (s *memRecords) UpdateTableApproval(ctx context.Context, table *domain.DocumentTableSection) error {
	return s.write("records.update_table", true, func(st *memState) error {
		for i, t := range st.tables {
			if t.ID == table.ID {
				cp := copyTable(t)
				cp.ColumnsApproved = copyMapping(table.ColumnsApproved)
				cp.RowsApproved = copyRows(table.RowsApproved)
				cp.IsCorrected = table.IsCorrected
				cp.ApprovedBy = table.ApprovedBy
				cp.ApprovedAt = table.ApprovedAt
				st.tables[i] = cp
				return nil
			}
		}
		return domain.ErrNotFound
	})
}

func (s *memRecords) ListTables(ctx context.Context, documentID string) ([]*domain.DocumentTableSection, error) {
	var out []*domain.DocumentTableSection
	s.read(func(st *memState) {
		for _, t := range st.tables {
			if t.DocumentID == documentID {
				out = append(out, copyTable(t))
			}
		}
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (s *memRecords) InsertSignatures(ctx context.Context, signatures []*domain.DocumentSignature) error {
	return s.write("records.insert_signatures", true, func(st *memState) error {
		for _, sig := range signatures {
			if err := requireDocument(st, sig.DocumentID); err != nil {
				return err
			}
			if sig.ID == "" {
				sig.ID = uuid.NewString()
			}
			cp := *sig
			st.signatures = append(st.signatures, &cp)
		}
		return nil
	})
}

func (s *memRecords) UpdateSignatureApproval(ctx context.Context, signature *domain.DocumentSignature) error {
	return s.write("records.update_signature", true, func(st *memState) error {
		for i, sig := range st.signatures {
			if sig.ID == signature.ID {
				cp := *sig
				cp.Approved = signature.Approved
				cp.IsCorrected = signature.IsCorrected
				cp.ApprovedBy = signature.ApprovedBy
				cp.ApprovedAt = signature.ApprovedAt
				st.signatures[i] = &cp
				return nil
			}
		}
		return domain.ErrNotFound
	})
}

func (s *memRecords) ListSignatures(ctx context.Context, documentID string) ([]*domain.DocumentSignature, error) {
	var out []*domain.DocumentSignature
	s.read(func(st *memState) {
		for _, sig := range st.signatures {
			if sig.DocumentID == documentID {
				cp := *sig
				out = append(out, &cp)
			}
		}
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

// Companies

type memCompanies struct{ *memRepos }

func (s *memCompanies) Get(ctx context.Context, id string) (*domain.Company, error) {
	var out *domain.Company
	s.read(func(st *memState) {
		if c, ok := st.companies[id]; ok {
			out = copyCompany(c)
		}
	})
	if out == nil {
		return nil, domain.ErrNotFound
	}
	return out, nil
}

func (s *memCompanies) GetByTaxID(ctx context.Context, taxID string) (*domain.Company, error) {
	var out *domain.Company
	s.read(func(st *memState) {
		for _, c := range st.companies {
			if c.TaxID != nil && *c.TaxID == taxID {
				out = copyCompany(c)
				return
			}
		}
	})
	if out == nil {
		return nil, domain.ErrNotFound
	}
	return out, nil
}

func (s *memCompanies) FindByNormalizedName(ctx context.Context, normalizedName string) (*domain.Company, error) {
	var matches []*domain.Company
	s.read(func(st *memState) {
		for _, c := range st.companies {
			if c.NormalizedName == normalizedName {
				matches = append(matches, copyCompany(c))
			}
		}
	})
	if len(matches) == 0 {
		return nil, domain.ErrNotFound
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})
	return matches[0], nil
}

func (s *memCompanies) Create(ctx context.Context, company *domain.Company) (*domain.Company, error) {
	var out *domain.Company
	err := s.write("companies.create", false, func(st *memState) error {
		if company.TaxID != nil {
			for _, c := range st.companies {
				if c.TaxID != nil && *c.TaxID == *company.TaxID {
					out = copyCompany(c)
					return nil
				}
			}
		}
		if company.ID == "" {
			company.ID = uuid.NewString()
		}
		now := time.Now().UTC()
		if company.CreatedAt.IsZero() {
			company.CreatedAt = now
		}
		company.UpdatedAt = now
		st.companies[company.ID] = copyCompany(company)
		out = copyCompany(company)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *memCompanies) Update(ctx context.Context, company *domain.Company) error {
	return s.write("companies.update", false, func(st *memState) error {
		if _, ok := st.companies[company.ID]; !ok {
			return domain.ErrNotFound
		}
		if company.TaxID != nil {
			for id, c := range st.companies {
				if id != company.ID && c.TaxID != nil && *c.TaxID == *company.TaxID {
					return fmt.Errorf("tax id %s taken: %w", *company.TaxID, domain.ErrAlreadyExists)
				}
			}
		}
		company.UpdatedAt = time.Now().UTC()
		st.companies[company.ID] = copyCompany(company)
		return nil
	})
}

// Catalog

type memCatalog struct{ *memRepos }

func (s *memCatalog) GetFieldByCode(ctx context.Context, code string) (*domain.FieldDefinition, error) {
	var out *domain.FieldDefinition
	s.read(func(st *memState) {
		if d, ok := st.fieldDefs[code]; ok {
			out = copyFieldDef(d)
		}
	})
	if out == nil {
		return nil, domain.ErrNotFound
	}
	return out, nil
}

func (s *memCatalog) GetFieldByLabel(ctx context.Context, section domain.FieldSection, label string) (*domain.FieldDefinition, error) {
	folded := domain.NormalizeLabel(label)
	if folded == "" {
		return nil, domain.ErrNotFound
	}
	var matches []*domain.FieldDefinition
	s.read(func(st *memState) {
		for _, d := range st.fieldDefs {
			if d.Section != section {
				continue
			}
			hit := domain.NormalizeLabel(d.Code) == folded
			for _, l := range d.Labels {
				if domain.NormalizeLabel(l.Label) == folded {
					hit = true
				}
			}
			if hit {
				matches = append(matches, copyFieldDef(d))
			}
		}
	})
	if len(matches) == 0 {
		return nil, domain.ErrNotFound
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Code < matches[j].Code })
	return matches[0], nil
}

func (s *memCatalog) ListFields(ctx context.Context) ([]*domain.FieldDefinition, error) {
	var out []*domain.FieldDefinition
	s.read(func(st *memState) {
		for _, d := range st.fieldDefs {
			out = append(out, copyFieldDef(d))
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *memCatalog) GetOrCreateField(ctx context.Context, def *domain.FieldDefinition) (*domain.FieldDefinition, error) {
	var out *domain.FieldDefinition
	err := s.write("catalog.get_or_create_field", false, func(st *memState) error {
		existing, ok := st.fieldDefs[def.Code]
		if !ok {
			existing = copyFieldDef(def)
			existing.ID = uuid.NewString()
			existing.CreatedAt = time.Now().UTC()
			existing.Labels = nil
			st.fieldDefs[def.Code] = existing
		}
		for _, l := range def.Labels {
			if !hasLabel(existing.Labels, l) {
				existing.Labels = append(existing.Labels, l)
			}
		}
		out = copyFieldDef(existing)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *memCatalog) GetOrCreateDocumentType(ctx context.Context, code, name string) (*domain.DocumentType, error) {
	var out *domain.DocumentType
	err := s.write("catalog.get_or_create_document_type", false, func(st *memState) error {
		dt, ok := st.docTypes[code]
		if !ok {
			dt = &domain.DocumentType{Code: code, Name: name, CreatedAt: time.Now().UTC()}
			st.docTypes[code] = dt
		}
		cp := *dt
		out = &cp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *memCatalog) ListDocumentTypes(ctx context.Context) ([]*domain.DocumentType, error) {
	var out []*domain.DocumentType
	s.read(func(st *memState) {
		for _, dt := range st.docTypes {
			cp := *dt
			out = append(out, &cp)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// Search

type memSearch struct{ *memRepos }

func (s *memSearch) FindTableRows(ctx context.Context, query domain.TableRowQuery) ([]*domain.TableRowMatch, error) {
	limit := domain.ClampSearchLimit(query.Limit)
	var out []*domain.TableRowMatch
	s.read(func(st *memState) {
		for _, t := range st.tables {
			rows := t.RowsRaw
			if query.Approved {
				rows = t.RowsApproved
			}
			var hits []domain.Row
			for _, row := range rows {
				if v, ok := row[query.Key]; ok && v != nil && *v == query.Value {
					hits = append(hits, row)
				}
			}
			if len(hits) > 0 && len(out) < limit {
				out = append(out, &domain.TableRowMatch{
					DocumentID:  t.DocumentID,
					SectionID:   t.ID,
					SectionName: t.Name,
					Rows:        copyRows(hits),
				})
			}
		}
	})
	return out, nil
}

func (s *memSearch) FullText(ctx context.Context, scope domain.SearchScope, language domain.TextLanguage, query string, limit int) ([]*domain.FullTextHit, error) {
	needle := strings.ToLower(query)
	var out []*domain.FullTextHit
	add := func(hit *domain.FullTextHit) {
		if len(out) < limit {
			out = append(out, hit)
		}
	}
	s.read(func(st *memState) {
		switch scope {
		case domain.ScopeOCR:
			for _, d := range st.documents {
				if f, ok := st.files[d.FileID]; ok && strings.Contains(strings.ToLower(f.OCRText), needle) {
					add(&domain.FullTextHit{Scope: scope, DocumentID: d.ID, Snippet: f.OCRText, Rank: 1})
				}
			}
		case domain.ScopeFields:
			for _, f := range st.fields {
				if f.RawValue != nil && strings.Contains(strings.ToLower(*f.RawValue), needle) {
					add(&domain.FullTextHit{Scope: scope, DocumentID: f.DocumentID, Snippet: *f.RawValue, Rank: 1})
				}
			}
		case domain.ScopeCompanies:
			for _, c := range st.companies {
				if strings.Contains(strings.ToLower(c.Name), needle) {
					add(&domain.FullTextHit{Scope: scope, CompanyID: c.ID, Snippet: c.Name, Rank: 1})
				}
			}
		}
	})
	return out, nil
}

// copy helpers

func copyDocument(d *domain.Document) *domain.Document {
	cp := *d
	return &cp
}

func copyCompany(c *domain.Company) *domain.Company {
	cp := *c
	if c.Attributes != nil {
		cp.Attributes = make(map[string]string, len(c.Attributes))
		for k, v := range c.Attributes {
			cp.Attributes[k] = v
		}
	}
	return &cp
}

func copyFieldDef(d *domain.FieldDefinition) *domain.FieldDefinition {
	cp := *d
	cp.Labels = append([]domain.FieldLabel(nil), d.Labels...)
	return &cp
}

func copyTable(t *domain.DocumentTableSection) *domain.DocumentTableSection {
	cp := *t
	cp.ColumnsRaw = copyMapping(t.ColumnsRaw)
	cp.ColumnsApproved = copyMapping(t.ColumnsApproved)
	cp.RowsRaw = copyRows(t.RowsRaw)
	cp.RowsApproved = copyRows(t.RowsApproved)
	return &cp
}

func copyMapping(m *domain.ColumnMapping) *domain.ColumnMapping {
	if m == nil {
		return nil
	}
	cp := domain.NewColumnMapping()
	for _, k := range m.Keys {
		cp.Add(k, m.Headers[k])
	}
	return cp
}

func copyRows(rows []domain.Row) []domain.Row {
	if rows == nil {
		return nil
	}
	out := make([]domain.Row, len(rows))
	for i, r := range rows {
		cp := make(domain.Row, len(r))
		for k, v := range r {
			cp[k] = v
		}
		out[i] = cp
	}
	return out
}

func hasLabel(labels []domain.FieldLabel, l domain.FieldLabel) bool {
	for _, existing := range labels {
		if existing.Locale == l.Locale && existing.Label == l.Label {
			return true
		}
	}
	return false
}
