package types

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsExternal(t *testing.T) {
	assert.False(t, (*Table)(nil).IsExternal())
	assert.False(t, (&Table{}).IsExternal())
	assert.True(t, (&Table{TableType: ExternalTable}).IsExternal())
	assert.True(t, (&Table{Parameters: map[string]string{"EXTERNAL": "true"}}).IsExternal())
	assert.True(t, (&Table{Parameters: map[string]string{"EXTERNAL": "TRUE"}}).IsExternal())
	assert.False(t, (&Table{Parameters: map[string]string{"EXTERNAL": "yes"}}).IsExternal())
}

func TestTableClone(t *testing.T) {
	orig := &Table{
		DBName:        "d1",
		TableName:     "t1",
		Sd:            &StorageDescriptor{Location: "file:///wh/d1/t1", Cols: []FieldSchema{{Name: "a", Type: "int"}}},
		PartitionKeys: []FieldSchema{{Name: "ds", Type: "string"}},
		Parameters:    map[string]string{"k": "v"},
	}
	cp := orig.Clone()
	cp.Sd.Location = "elsewhere"
	cp.Sd.Cols[0].Name = "b"
	cp.Parameters["k"] = "w"
	cp.PartitionKeys[0].Name = "hr"

	assert.Equal(t, "file:///wh/d1/t1", orig.Sd.Location)
	assert.Equal(t, "a", orig.Sd.Cols[0].Name)
	assert.Equal(t, "v", orig.Parameters["k"])
	assert.Equal(t, "ds", orig.PartitionKeys[0].Name)
	assert.Nil(t, (*Table)(nil).Clone())
}

func TestPartitionClone(t *testing.T) {
	orig := &Partition{Values: []string{"2024-01-01"}, Sd: &StorageDescriptor{Location: "x"}}
	cp := orig.Clone()
	cp.Values[0] = "other"
	cp.SetParameter(DDLTimeKey, "1")

	assert.Equal(t, "2024-01-01", orig.Values[0])
	assert.Nil(t, orig.Parameters)
	assert.Equal(t, "x", orig.Location())
}

func TestValidateName(t *testing.T) {
	assert.True(t, ValidateName("t1"))
	assert.True(t, ValidateName("my_table"))
	assert.False(t, ValidateName(""))
	assert.False(t, ValidateName("bad name"))
	assert.False(t, ValidateName("a.b"))
	assert.False(t, ValidateName("x-y"))

	assert.True(t, ValidateColNames([]FieldSchema{{Name: "a"}, {Name: "b_2"}}))
	assert.False(t, ValidateColNames([]FieldSchema{{Name: "a"}, {Name: "b c"}}))
}

func TestPartitionKeyCollision(t *testing.T) {
	cols := []FieldSchema{{Name: "id"}, {Name: "DS"}}
	assert.Equal(t, "ds", PartitionKeyCollision(cols, []FieldSchema{{Name: "ds"}}))
	assert.Equal(t, "", PartitionKeyCollision(cols, []FieldSchema{{Name: "hr"}}))
}

func TestFilterNames(t *testing.T) {
	names := []string{"orders", "order_items", "customers", "Events"}

	tests := []struct {
		pattern string
		want    []string
	}{
		{"", []string{"Events", "customers", "order_items", "orders"}},
		{"*", []string{"Events", "customers", "order_items", "orders"}},
		{"order*", []string{"order_items", "orders"}},
		{"cust*|events", []string{"Events", "customers"}},
		{"orders", []string{"orders"}},
		{"nothing", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, err := FilterNames(names, tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := FilterNames(names, "(")
	assert.True(t, IsSystemFailure(err))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindAlreadyExists, KindOf(NewAlreadyExists("x")))
	assert.Equal(t, KindNoSuchObject, KindOf(fmt.Errorf("wrapped: %w", NewNoSuchObject("x"))))
	assert.Equal(t, KindInvalidObject, KindOf(NewInvalidObject("x")))
	assert.Equal(t, KindInvalidOperation, KindOf(NewInvalidOperation("x")))
	assert.Equal(t, KindConfigAccessDenied, KindOf(NewConfigAccessDenied("x")))
	assert.Equal(t, KindSystemFailure, KindOf(stderrors.New("plain")))

	assert.True(t, IsNoSuchObject(NewNoSuchObject("x")))
	assert.False(t, IsNoSuchObject(nil))
	assert.False(t, IsSystemFailure(nil))
	assert.Equal(t, InvalidOperation, CodeOf(KindInvalidOperation))
	assert.Equal(t, SystemFailure, CodeOf(Kind("bogus")))
}
