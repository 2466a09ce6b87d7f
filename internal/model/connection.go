package model

import (
	"fmt"

	"github.com/google/uuid"
)

type ConnectionStatus string

const (
	ConnectionPending ConnectionStatus = "PENDING"
	ConnectionActive  ConnectionStatus = "ACTIVE"
	ConnectionRevoked ConnectionStatus = "REVOKED"
)

// connectionTransitions is the complete set of allowed status changes.
var connectionTransitions = map[ConnectionStatus][]ConnectionStatus{
	ConnectionPending: {ConnectionActive, ConnectionRevoked},
	ConnectionActive:  {ConnectionRevoked},
	ConnectionRevoked: {ConnectionPending},
}

func (s ConnectionStatus) Valid() bool {
	_, ok := connectionTransitions[s]
	return ok
}

// CanTransition reports whether from -> to is in the transition table.
func (s ConnectionStatus) CanTransition(to ConnectionStatus) bool {
	for _, next := range connectionTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// ErrInvalidTransition is returned for status changes outside the table.
type ErrInvalidTransition struct {
	From ConnectionStatus
	To   ConnectionStatus
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("invalid connection transition %s -> %s", e.From, e.To)
}

// Connection is the doctor<->patient access grant. At most one exists per
// (doctor, patient) pair.
type Connection struct {
	Base
	DoctorID         uuid.UUID        `json:"doctor_id" db:"doctor_id"`
	PatientID        uuid.UUID        `json:"patient_id" db:"patient_id"`
	Status           ConnectionStatus `json:"status" db:"status"`
	ConnectionCode   *string          `json:"connection_code,omitempty" db:"connection_code"`
	BlockchainTxHash *string          `json:"blockchain_tx_hash,omitempty" db:"blockchain_tx_hash"`

	// Party user ids and names, joined on reads.
	DoctorUserID  uuid.UUID `json:"doctor_user_id" db:"doctor_user_id"`
	PatientUserID uuid.UUID `json:"patient_user_id" db:"patient_user_id"`
	DoctorName    string    `json:"doctor_name,omitempty" db:"doctor_name"`
	PatientName   string    `json:"patient_name,omitempty" db:"patient_name"`
}

// Transition moves the connection to a new status, rejecting changes the
// table does not allow.
func (c *Connection) Transition(to ConnectionStatus) error {
	if !c.Status.CanTransition(to) {
		return &ErrInvalidTransition{From: c.Status, To: to}
	}
	c.Status = to
	return nil
}

type WalletConnectionRequest struct {
	PatientWalletAddress string `json:"patient_wallet_address" binding:"required,ethaddr"`
}

type VerifyConnectionRequest struct {
	ConnectionID uuid.UUID `json:"connection_id" binding:"required"`
	Signature    string    `json:"signature" binding:"required"`
}

// WalletConnectionResponse carries the pending record and the message the
// patient has to sign to approve it.
type WalletConnectionResponse struct {
	Connection     *Connection `json:"connection"`
	MessageToSign  string      `json:"message_to_sign"`
	ConnectionCode string      `json:"connection_code"`
}
