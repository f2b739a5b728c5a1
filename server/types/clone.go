package types

func cloneParams(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneFields(in []FieldSchema) []FieldSchema {
	if in == nil {
		return nil
	}
	return append([]FieldSchema(nil), in...)
}

func (sd *StorageDescriptor) Clone() *StorageDescriptor {
	if sd == nil {
		return nil
	}
	out := *sd
	out.Cols = cloneFields(sd.Cols)
	out.BucketCols = append([]string(nil), sd.BucketCols...)
	out.Parameters = cloneParams(sd.Parameters)
	out.SerdeInfo.Parameters = cloneParams(sd.SerdeInfo.Parameters)
	return &out
}

func (d *Database) Clone() *Database {
	if d == nil {
		return nil
	}
	out := *d
	return &out
}

func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	out := *t
	out.Sd = t.Sd.Clone()
	out.PartitionKeys = cloneFields(t.PartitionKeys)
	out.Parameters = cloneParams(t.Parameters)
	return &out
}

func (p *Partition) Clone() *Partition {
	if p == nil {
		return nil
	}
	out := *p
	out.Values = append([]string(nil), p.Values...)
	out.Sd = p.Sd.Clone()
	out.Parameters = cloneParams(p.Parameters)
	return &out
}

func (t *Type) Clone() *Type {
	if t == nil {
		return nil
	}
	out := *t
	out.Fields = cloneFields(t.Fields)
	return &out
}
