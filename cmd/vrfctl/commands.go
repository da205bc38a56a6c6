package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"

	"github.com/0gfoundation/0g-vrf-coordinator/internal/auth"
	"github.com/0gfoundation/0g-vrf-coordinator/internal/coordinator"
	"github.com/0gfoundation/0g-vrf-coordinator/internal/proof"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "vrfctl",
		Short:        "Offline helpers for the VRF coordinator",
		SilenceUsage: true,
	}
	root.AddCommand(
		hashKeyCmd(),
		decodeProofCmd(),
		encodeProofCmd(),
		wordsCmd(),
		signCmd(),
	)
	return root
}

func parseUint256(s string) (*big.Int, error) {
	v, ok := math.ParseBig256(s)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("not a uint256: %q", s)
	}
	return v, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ── hash-key ──────────────────────────────────────────────────────────────────

func hashKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-key <x> <y>",
		Short: "Print the key hash of an uncompressed public key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := parseUint256(args[0])
			if err != nil {
				return err
			}
			y, err := parseUint256(args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), coordinator.HashOfKey([2]*big.Int{x, y}).Hex())
			return nil
		},
	}
}

// ── proof encode/decode ───────────────────────────────────────────────────────

// proofJSON is the human-editable form of a fulfillment payload. Integers
// accept decimal or 0x-hex and are printed as hex.
type proofJSON struct {
	PublicKey        [2]*math.HexOrDecimal256 `json:"public_key"`
	Gamma            [2]*math.HexOrDecimal256 `json:"gamma"`
	C                *math.HexOrDecimal256    `json:"c"`
	S                *math.HexOrDecimal256    `json:"s"`
	PreSeed          *math.HexOrDecimal256    `json:"pre_seed"`
	UWitness         common.Address           `json:"u_witness"`
	CGammaWitness    [2]*math.HexOrDecimal256 `json:"c_gamma_witness"`
	SHashWitness     [2]*math.HexOrDecimal256 `json:"s_hash_witness"`
	ZInv             *math.HexOrDecimal256    `json:"z_inv"`
	BlockNum         uint64                   `json:"block_num"`
	SubID            uint64                   `json:"sub_id"`
	CallbackGasLimit uint32                   `json:"callback_gas_limit"`
	NumWords         uint32                   `json:"num_words"`
	Sender           common.Address           `json:"sender"`
	RequestID        *common.Hash             `json:"request_id,omitempty"`
	KeyHash          *common.Hash             `json:"key_hash,omitempty"`
}

func h256(v *big.Int) *math.HexOrDecimal256 { return (*math.HexOrDecimal256)(v) }

func b256(v *math.HexOrDecimal256) *big.Int {
	if v == nil {
		return nil
	}
	return (*big.Int)(v)
}

func toProofJSON(p *proof.Proof) proofJSON {
	reqID := p.RequestID()
	keyHash := coordinator.HashOfKey(p.PublicKey)
	return proofJSON{
		PublicKey:        [2]*math.HexOrDecimal256{h256(p.PublicKey[0]), h256(p.PublicKey[1])},
		Gamma:            [2]*math.HexOrDecimal256{h256(p.Gamma[0]), h256(p.Gamma[1])},
		C:                h256(p.C),
		S:                h256(p.S),
		PreSeed:          h256(p.PreSeed),
		UWitness:         p.UWitness,
		CGammaWitness:    [2]*math.HexOrDecimal256{h256(p.CGammaWitness[0]), h256(p.CGammaWitness[1])},
		SHashWitness:     [2]*math.HexOrDecimal256{h256(p.SHashWitness[0]), h256(p.SHashWitness[1])},
		ZInv:             h256(p.ZInv),
		BlockNum:         p.BlockNum,
		SubID:            p.SubID,
		CallbackGasLimit: p.CallbackGasLimit,
		NumWords:         p.NumWords,
		Sender:           p.Sender,
		RequestID:        &reqID,
		KeyHash:          &keyHash,
	}
}

func (j proofJSON) proof() *proof.Proof {
	return &proof.Proof{
		PublicKey:        [2]*big.Int{b256(j.PublicKey[0]), b256(j.PublicKey[1])},
		Gamma:            [2]*big.Int{b256(j.Gamma[0]), b256(j.Gamma[1])},
		C:                b256(j.C),
		S:                b256(j.S),
		PreSeed:          b256(j.PreSeed),
		UWitness:         j.UWitness,
		CGammaWitness:    [2]*big.Int{b256(j.CGammaWitness[0]), b256(j.CGammaWitness[1])},
		SHashWitness:     [2]*big.Int{b256(j.SHashWitness[0]), b256(j.SHashWitness[1])},
		ZInv:             b256(j.ZInv),
		BlockNum:         j.BlockNum,
		SubID:            j.SubID,
		CallbackGasLimit: j.CallbackGasLimit,
		NumWords:         j.NumWords,
		Sender:           j.Sender,
	}
}

func decodeProofCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode-proof <0x-payload>",
		Short: "Decode a fulfillment payload into JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := hexutil.Decode(args[0])
			if err != nil {
				return fmt.Errorf("payload: %w", err)
			}
			p, err := proof.Decode(raw)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), toProofJSON(p))
		},
	}
}

func encodeProofCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encode-proof [file]",
		Short: "Encode a JSON proof (file or stdin) into a fulfillment payload",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			var j proofJSON
			if err := json.NewDecoder(in).Decode(&j); err != nil {
				return fmt.Errorf("proof json: %w", err)
			}
			b, err := proof.Encode(j.proof())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hexutil.Encode(b))
			return nil
		},
	}
}

// ── words ─────────────────────────────────────────────────────────────────────

func wordsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "words <randomness> <n>",
		Short: "Expand verified randomness into n random words",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := parseUint256(args[0])
			if err != nil {
				return err
			}
			n, err := strconv.ParseUint(args[1], 10, 32)
			if err != nil || n > coordinator.MaxNumWords {
				return fmt.Errorf("n must be between 0 and %d", coordinator.MaxNumWords)
			}
			for _, w := range coordinator.ExpandWords(r, uint32(n)) {
				fmt.Fprintln(cmd.OutOrStdout(), w.String())
			}
			return nil
		},
	}
}

// ── sign ──────────────────────────────────────────────────────────────────────

func signCmd() *cobra.Command {
	var (
		keyHex  string
		action  string
		payload string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Print the headers for a signed API request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := crypto.HexToECDSA(trim0x(keyHex))
			if err != nil {
				return fmt.Errorf("private key: %w", err)
			}
			if !json.Valid([]byte(payload)) {
				return fmt.Errorf("payload is not valid JSON")
			}
			env, err := auth.NewEnvelope(action, json.RawMessage(payload), ttl)
			if err != nil {
				return err
			}
			h, err := env.Headers(key)
			if err != nil {
				return err
			}
			for _, name := range []string{auth.HeaderAddress, auth.HeaderMessage, auth.HeaderSignature} {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", name, h.Get(name))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&keyHex, "key", "", "hex-encoded secp256k1 private key")
	cmd.Flags().StringVar(&action, "action", "", "signed action, e.g. subscription.create")
	cmd.Flags().StringVar(&payload, "payload", "{}", "JSON payload")
	cmd.Flags().DurationVar(&ttl, "ttl", 2*time.Minute, "envelope lifetime (max 5m)")
	_ = cmd.MarkFlagRequired("key")
	_ = cmd.MarkFlagRequired("action")
	return cmd
}

func trim0x(s string) string {
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return s[2:]
	}
	return s
}
