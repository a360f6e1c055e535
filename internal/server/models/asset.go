package models

// Asset is the metadata document describing one pinned upload. The same
// shape is pinned to IPFS and persisted, so timestamps are kept as RFC3339
// strings rather than native time values. Everything except Available is
// immutable once written.
type Asset struct {
	CID           string `json:"ipfs_hash"`
	MetadataCID   string `json:"metadata_hash,omitempty"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Author        string `json:"author"`
	WalletAddress string `json:"wallet_address"`
	CreatedAt     string `json:"created_at"`
	Expiry        string `json:"expiry"`
	FileName      string `json:"file_name"`
	ContentType   string `json:"content_type"`
	Price         string `json:"price"`
	Available     bool   `json:"available"`
}

// AvailableAsset is the public projection of an asset listed for sale.
type AvailableAsset struct {
	Author      string `json:"author"`
	Description string `json:"description"`
	CID         string `json:"ipfs_hash"`
}
