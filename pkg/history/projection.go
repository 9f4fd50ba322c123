package history

// Project returns a copy of record limited to a field set. explicit wins when
// non-nil, then defaults; when both are nil the whole record is copied. The id
// field gets no special treatment.
func Project(record Record, explicit, defaults []string) Record {
	fields := explicit
	if fields == nil {
		fields = defaults
	}
	if fields == nil {
		return cloneRecord(record)
	}

	out := make(Record, len(fields))
	for _, f := range fields {
		if v, ok := record[f]; ok {
			out[f] = cloneValue(v)
		}
	}
	return out
}
