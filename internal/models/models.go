package models

// All returns the models managed by the registry schema, in migration order.
func All() []interface{} {
	return []interface{}{
		&StudentRecord{},
		&ArchivedRecord{},
		&ActivityLog{},
		&Setting{},
	}
}
