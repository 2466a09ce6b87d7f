package model

import (
	"strings"
)

type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleDoctor  Role = "DOCTOR"
	RolePatient Role = "PATIENT"
	RoleUser    Role = "USER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePatient, RoleUser:
		return true
	}
	return false
}

// IsPatient reports whether the role acts as a patient. USER is the
// pre-onboarding role and is treated as one.
func (r Role) IsPatient() bool {
	return r == RolePatient || r == RoleUser
}

// ClientRole is the lowercase role name the dashboard routes on.
func (r Role) ClientRole() string {
	if r == RoleUser {
		return "patient"
	}
	return strings.ToLower(string(r))
}

type User struct {
	Base
	FirebaseUID   *string `json:"firebase_uid,omitempty" db:"firebase_uid"`
	ClerkID       *string `json:"clerk_id,omitempty" db:"clerk_id"`
	Name          string  `json:"name" db:"name"`
	Email         *string `json:"email,omitempty" db:"email"`
	WalletAddress *string `json:"wallet_address,omitempty" db:"wallet_address"`
	Role          Role    `json:"role" db:"role"`
}

// NormalizeWallet lowercases a wallet address; addresses are stored lowercase.
func NormalizeWallet(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

type RegisterRequest struct {
	Name          string  `json:"name" binding:"required,min=2,max=120"`
	Email         *string `json:"email" binding:"omitempty,email"`
	WalletAddress *string `json:"wallet_address" binding:"omitempty,ethaddr"`
	ClerkID       *string `json:"clerk_id"`
	Role          Role    `json:"role" binding:"omitempty,oneof=DOCTOR PATIENT USER"`
}

// UpdateRoleRequest is the onboarding role choice. ADMIN is never
// self-assigned.
type UpdateRoleRequest struct {
	Role Role `json:"role" binding:"required,oneof=DOCTOR PATIENT USER"`
}

type WalletNonceRequest struct {
	WalletAddress string `json:"wallet_address" binding:"required,ethaddr"`
}

type WalletVerifyRequest struct {
	WalletAddress string `json:"wallet_address" binding:"required,ethaddr"`
	Signature     string `json:"signature" binding:"required"`
}

type AuthResponse struct {
	AccessToken string `json:"access_token"`
	User        *User  `json:"user"`
}
