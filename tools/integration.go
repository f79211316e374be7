package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/magicpot/indexer/src/utils/config"
	"github.com/magicpot/indexer/src/utils/payload"
	"github.com/magicpot/indexer/src/utils/ton"
)

var errEnough = errors.New("enough")

// Walks the newest transactions of a live pot and prints what the indexer would see.
// Usage: go run ./tools <pot address> [config.json]
func main() {
	if len(os.Args) < 2 {
		log.Fatal("pot address is required")
	}

	var file string
	if len(os.Args) > 2 {
		file = os.Args[2]
	}

	conf, err := config.Load(file)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	reader := ton.NewBlockchainReader(ton.NewToncenter(conf))

	seqno, err := reader.EnsureSynced(ctx, 0)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("seqno: %d\n", seqno)

	state, err := reader.GetAccountState(ctx, os.Args[1])
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("last lt: %d, synced at %s\n", state.LastTransaction.Lt, state.SyncTime)

	count := 0
	err = reader.EnumerateTransactions(ctx, os.Args[1], state.LastTransaction, 0, func(tx ton.RawTransaction) error {
		count++
		if count > 20 {
			return errEnough
		}

		notification, ok := ton.TryParseTransferNotification(tx.InMsg)
		if !ok {
			fmt.Printf("%d %s: not a jetton transfer\n", tx.Id.Lt, tx.Time)
			return nil
		}

		decoded, ok := payload.Decode(notification.Payload)
		fmt.Printf("%d %s: %s from %s via %s, payload ok=%v intent=%s user=%d\n",
			tx.Id.Lt, tx.Time,
			notification.Amount,
			ton.ToUser(notification.Sender, conf.Ton.Testnet),
			notification.JettonWallet,
			ok, decoded.Intent, decoded.UserId)
		return nil
	})
	if err != nil && !errors.Is(err, errEnough) {
		log.Fatal(err)
	}
}
