package normalisers

import (
	"fmt"

	"github.com/custodia-labs/docledger/internal/core/domain"
)

// DefaultTableName names the table of a single-table tableData section.
const DefaultTableName = "lineItems"

// tableSpecKeys are the structural keys of a {name, columnMapping, lineItems} table spec.
var tableSpecKeys = map[string]bool{
	"name": true, "title": true, "columnMapping": true, "columns": true, "lineItems": true, "rows": true,
}

func isTableSpec(n *domain.Node) bool {
	return n.IsObject() && (n.Has("lineItems") || n.Has("columnMapping") || n.Has("rows"))
}

// tableData accepts {columnMapping, lineItems}, a map of named table specs,
// an array of table specs, or a bare array of rows.
func (f *flattener) tableData(node *domain.Node) {
	if node.IsArray() {
		specs := len(node.Items) > 0
		for _, item := range node.Items {
			if !isTableSpec(item) {
				specs = false
			}
		}
		if !specs {
			f.addTable(DefaultTableName, nil, node)
			return
		}
		for i, item := range node.Items {
			f.tableSpec(fmt.Sprintf("%s[%d]", keyTableData, i), fmt.Sprintf("table_%d", i+1), item)
		}
		return
	}

	if isTableSpec(node) {
		f.tableSpec(keyTableData, DefaultTableName, node)
		return
	}
	for _, m := range node.Members {
		switch {
		case isTableSpec(m.Value):
			f.tableSpec(joinPath(keyTableData, m.Key), m.Key, m.Value)
		case isRowArray(m.Value):
			f.addTable(m.Key, nil, m.Value)
		default:
			f.walkMember(domain.SectionOther, keyTableData, "", m.Key, m.Value)
		}
	}
}

func (f *flattener) tableSpec(path, defaultName string, spec *domain.Node) {
	name := firstText(spec, "name", "title")
	if name == "" {
		name = defaultName
	}

	mapping := spec.Get("columnMapping")
	if mapping == nil {
		mapping = spec.Get("columns")
	}
	rows := spec.Get("lineItems")
	if rows == nil {
		rows = spec.Get("rows")
	}
	if !rows.IsNull() && !rows.IsArray() {
		// not a row list; keep it as a plain field
		f.walkMember(domain.SectionOther, path, "", "lineItems", rows)
		rows = nil
	}
	f.addTable(name, mapping, rows)

	for _, m := range spec.Members {
		if !tableSpecKeys[m.Key] {
			f.walkMember(domain.SectionOther, path, "", m.Key, m.Value)
		}
	}
}

// addTable builds a table whose rows all carry exactly the mapping's keys.
// Row keys missing from the mapping are added with the key as header text;
// cells missing from a row are filled with null.
func (f *flattener) addTable(name string, mapping, rows *domain.Node) {
	cols := domain.NewColumnMapping()
	switch {
	case mapping.IsObject():
		for _, m := range mapping.Members {
			cols.Add(m.Key, headerText(m.Key, m.Value))
		}
	case mapping.IsArray():
		for _, item := range mapping.Items {
			if item.IsScalar() {
				cols.Add(item.Text, item.Text)
				continue
			}
			if key := firstText(item, "key", "code", "name"); key != "" {
				cols.Add(key, headerText(key, firstNode(item, "header", "label", "title")))
			}
		}
	}

	out := make([]domain.Row, 0)
	if rows.IsArray() {
		for _, item := range rows.Items {
			row := domain.Row{}
			if item.IsObject() && !isLeafObject(item) {
				for _, m := range item.Members {
					cols.Add(m.Key, m.Key)
					row[m.Key] = cellValue(m.Value)
				}
			} else {
				cols.Add("value", "value")
				row["value"] = cellValue(item)
			}
			out = append(out, row)
		}
	}
	for _, row := range out {
		for _, k := range cols.Keys {
			if _, ok := row[k]; !ok {
				row[k] = nil
			}
		}
	}

	f.out.Tables = append(f.out.Tables, domain.TableRecord{
		Name:     name,
		Position: len(f.out.Tables),
		Columns:  cols,
		Rows:     out,
	})
}

func headerText(key string, n *domain.Node) string {
	if t := text(n); t != "" {
		return t
	}
	if l := firstText(n, "label", "displayLabel", "title", "header"); l != "" {
		return l
	}
	return key
}

func cellValue(n *domain.Node) *string {
	if isLeafObject(n) {
		return n.Get("value").Value()
	}
	return n.Value()
}

func firstNode(n *domain.Node, keys ...string) *domain.Node {
	for _, k := range keys {
		if v := n.Get(k); !v.IsNull() {
			return v
		}
	}
	return nil
}
