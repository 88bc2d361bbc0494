package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Killerdash117/veramon-reunited-sub000/internal/game"
)

// SchemaVersion is stamped into every snapshot blob. Decoding refuses
// blobs written by a different schema instead of guessing at field
// meanings; bump it whenever the battle layout changes incompatibly.
const SchemaVersion = 1

// ErrSchemaVersion marks a snapshot written by an incompatible schema.
var ErrSchemaVersion = errors.New("unsupported snapshot schema")

type snapshotEnvelope struct {
	SchemaVersion int          `json:"schema_version"`
	Battle        *game.Battle `json:"battle"`
}

// EncodeBattle serializes a battle into its snapshot form. The encoding is
// deterministic for a given battle state, so encode/decode round trips are
// byte-stable.
func EncodeBattle(b *game.Battle) ([]byte, error) {
	data, err := json.Marshal(snapshotEnvelope{SchemaVersion: SchemaVersion, Battle: b})
	if err != nil {
		return nil, fmt.Errorf("encode battle snapshot: %w", err)
	}
	return data, nil
}

// DecodeBattle parses and structurally validates a snapshot blob. Callers
// get either a battle safe to resume or an error describing why the blob
// cannot be trusted.
func DecodeBattle(data []byte) (*game.Battle, error) {
	var env snapshotEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode battle snapshot: %w", err)
	}
	if env.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSchemaVersion, env.SchemaVersion, SchemaVersion)
	}
	if env.Battle == nil {
		return nil, fmt.Errorf("decode battle snapshot: empty envelope")
	}
	if err := env.Battle.Validate(); err != nil {
		return nil, fmt.Errorf("invalid battle snapshot: %w", err)
	}
	return env.Battle, nil
}
