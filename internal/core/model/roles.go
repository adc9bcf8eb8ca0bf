package model

// Role is the part a column plays in duplicate detection.
type Role string

const (
	RoleIdentifier   Role = "identifier"
	RoleName         Role = "name"
	RoleCategorical  Role = "categorical"
	RoleNumerical    Role = "numerical"
	RoleDate         Role = "date"
	RoleUnclassified Role = "unclassified"
)

// RoleMap groups column names by role, each list in column order.
type RoleMap struct {
	Identifier   []string `json:"identifier_columns"`
	Name         []string `json:"name_columns"`
	Categorical  []string `json:"categorical_columns"`
	Numerical    []string `json:"numerical_columns"`
	Date         []string `json:"date_columns"`
	Unclassified []string `json:"unclassified_columns"`
}

// RoleOf returns the role assigned to column, RoleUnclassified if absent.
func (m RoleMap) RoleOf(column string) Role {
	for role, cols := range map[Role][]string{
		RoleIdentifier:  m.Identifier,
		RoleName:        m.Name,
		RoleCategorical: m.Categorical,
		RoleNumerical:   m.Numerical,
		RoleDate:        m.Date,
	} {
		for _, c := range cols {
			if c == column {
				return role
			}
		}
	}
	return RoleUnclassified
}

// Mode selects how two strings are compared.
type Mode string

const (
	// ModeTokenSort ignores word order and letter case.
	ModeTokenSort Mode = "token_sort"
	// ModeDirect compares the raw strings.
	ModeDirect Mode = "direct"
)

// Strategy is one ranked way of looking for duplicates.
type Strategy struct {
	Priority    int      `json:"priority"`
	Name        string   `json:"name"`
	Columns     []string `json:"columns"`
	Threshold   int      `json:"threshold"`
	Description string   `json:"description"`
}

// Exact reports whether the strategy demands exact equality.
func (s Strategy) Exact() bool { return s.Threshold >= 100 }
