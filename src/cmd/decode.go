package cmd

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/magicpot/indexer/src/utils/payload"
	"github.com/magicpot/indexer/src/utils/ton"

	"github.com/spf13/cobra"
)

var ErrUnknownPayload = errors.New("not a payload")

var decodeTestnet bool

func init() {
	decodeCmd.Flags().BoolVar(&decodeTestnet, "testnet", false, "print addresses in testnet form")
	RootCmd.AddCommand(decodeCmd)
}

var decodeCmd = &cobra.Command{
	Use:   "decode <hex|base64>",
	Short: "Decodes the forward payload of a transfer sent to a pot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		defer applicationCtxCancel()

		buf, err := parseBytes(args[0])
		if err != nil {
			return
		}
		return describePayload(cmd.OutOrStdout(), buf, decodeTestnet)
	},
}

// Accepts hex (optionally 0x prefixed) or standard/url base64
func parseBytes(in string) (out []byte, err error) {
	in = strings.TrimSpace(in)

	out, err = hex.DecodeString(strings.TrimPrefix(in, "0x"))
	if err == nil {
		return
	}

	out, err = base64.StdEncoding.DecodeString(in)
	if err == nil {
		return
	}

	out, err = base64.URLEncoding.DecodeString(in)
	if err != nil {
		return nil, fmt.Errorf("input is neither hex nor base64: %w", err)
	}
	return
}

// Current payload first, the 24 byte legacy format as a fallback
func describePayload(w io.Writer, buf []byte, testnet bool) error {
	decoded, ok := payload.DecodeBOC(buf)
	if ok {
		fmt.Fprintf(w, "format: current\nintent: %s\nuser_id: %d\n", decoded.Intent, decoded.UserId)
		if decoded.Referrer != nil {
			fmt.Fprintf(w, "referrer: %s\n", ton.ToUser(decoded.Referrer, testnet))
		}
		return nil
	}

	potId, userId, ok := payload.DecodeLegacy(buf)
	if ok {
		fmt.Fprintf(w, "format: legacy\npot_id: %d\nuser_id: %d\n", potId, userId)
		return nil
	}

	return ErrUnknownPayload
}
