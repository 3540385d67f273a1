// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// MFAFactorTable represents the 'auth.mfa_factors' table
type MFAFactorTable struct {
	Table        string
	ID           string
	UserID       string
	FriendlyName string
	FactorType   string
	Secret       string
	Status       string
	CreatedAt    string
	UpdatedAt    string
}

// MFAFactor is the schema definition for auth.mfa_factors
var MFAFactor = MFAFactorTable{
	Table:        "auth.mfa_factors",
	ID:           "id",
	UserID:       "user_id",
	FriendlyName: "friendly_name",
	FactorType:   "factor_type",
	Secret:       "secret",
	Status:       "status",
	CreatedAt:    "created_at",
	UpdatedAt:    "updated_at",
}

// Columns returns all standard column names
func (t MFAFactorTable) Columns() []string {
	return []string{
		t.ID, t.UserID, t.FriendlyName, t.FactorType, t.Secret, t.Status, t.CreatedAt,
		t.UpdatedAt,
	}
}
