package model

// All lists every table in migration order.
func All() []any {
	return []any{
		&Department{},
		&Role{},
		&User{},
		&Project{},
		&OrgSharePointConfig{},
		&ProjectSharePointConfig{},
		&File{},
		&Document{},
		&DocumentVersion{},
		&DocumentActivityLog{},
	}
}
