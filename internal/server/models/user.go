package models

import "time"

// User is an account record. WalletAddress is empty until the user proves
// control of an address via a signed challenge. AssetRefs holds the content
// ids of uploaded assets, in upload order; the asset records themselves live
// in the assets collection keyed by content id.
type User struct {
	ID             string    `json:"id"`
	UserName       string    `json:"username"`
	PasswordDigest []byte    `json:"-"`
	WalletAddress  string    `json:"wallet,omitempty"`
	AssetRefs      []string  `json:"assets,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
