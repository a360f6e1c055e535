// Package wallet verifies control of an Ethereum address from a signature
// over a fixed challenge message. Signatures are produced by wallets with
// personal_sign, so the challenge is hashed with the personal-message prefix
// before recovery.
package wallet

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"ipfsmarket/internal/logging"
)

const challengeFormat = "Auth for %s (Testnet)"

// ChallengeMessage returns the exact text the wallet is asked to sign for
// the given address. Clients must sign this byte-for-byte.
func ChallengeMessage(walletAddress string) string {
	return fmt.Sprintf(challengeFormat, walletAddress)
}

// Verifier recovers the signer of a challenge signature and compares it to
// the claimed address.
type Verifier struct {
	logger logging.Logger
}

func NewVerifier(logger logging.Logger) *Verifier {
	return &Verifier{logger: logger.With("module", "wallet_verifier")}
}

// Verify reports whether signature is a valid personal_sign signature over
// ChallengeMessage(walletAddress) by the key controlling walletAddress.
// The address comparison is case-insensitive. Every failure mode — malformed
// hex, wrong length, unrecoverable signature — collapses to false; callers
// only learn "not verified".
func (v *Verifier) Verify(walletAddress, signature string) bool {
	raw, err := hexutil.Decode(signature)
	if err != nil {
		v.logger.Debug(context.Background(), "signature decode failed", "error", err)
		return false
	}
	if len(raw) != crypto.SignatureLength {
		v.logger.Debug(context.Background(), "unexpected signature length", "len", len(raw))
		return false
	}

	// personal_sign encodes the recovery id as 27/28; SigToPub wants 0/1.
	sig := make([]byte, len(raw))
	copy(sig, raw)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	if sig[crypto.RecoveryIDOffset] > 1 {
		return false
	}

	hash := accounts.TextHash([]byte(ChallengeMessage(walletAddress)))
	pub, err := crypto.SigToPub(hash, sig)
	if err != nil {
		v.logger.Debug(context.Background(), "signer recovery failed", "error", err)
		return false
	}

	recovered := crypto.PubkeyToAddress(*pub)
	return strings.EqualFold(recovered.Hex(), walletAddress)
}
