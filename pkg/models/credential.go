package models

import "time"

// CredentialRecord stores a user's delegated offline credential.
// The refresh token is AES-GCM ciphertext under a versioned key and is
// only ever decrypted inside the vault. One record per owner; created or
// overwritten solely by the authorization-code exchange.
type CredentialRecord struct {
	OwnerID               string
	EncryptedRefreshToken string
	KeyVersion            int
	CreatedAt             time.Time
	UpdatedAt             time.Time
}
