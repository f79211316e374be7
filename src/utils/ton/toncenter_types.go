package ton

import "encoding/json"

// Envelope of every toncenter v2 response
type toncenterResponse[T any] struct {
	Ok     bool   `json:"ok"`
	Result T      `json:"result"`
	Error  string `json:"error"`
	Code   int    `json:"code"`
}

type toncenterBlockId struct {
	Workchain int32  `json:"workchain"`
	Shard     string `json:"shard"`
	Seqno     int64  `json:"seqno"`
}

type toncenterMasterchainInfo struct {
	Last toncenterBlockId `json:"last"`
}

type toncenterTransactionId struct {
	Lt   int64  `json:"lt,string"`
	Hash string `json:"hash"`
}

type toncenterAddressInformation struct {
	Balance           string                 `json:"balance"`
	State             string                 `json:"state"`
	LastTransactionId toncenterTransactionId `json:"last_transaction_id"`
	SyncUtime         int64                  `json:"sync_utime"`
}

type toncenterMessageData struct {
	Type string `json:"@type"`
	Body string `json:"body"`
}

type toncenterMessage struct {
	Source      string               `json:"source"`
	Destination string               `json:"destination"`
	Value       string               `json:"value"`
	MsgData     toncenterMessageData `json:"msg_data"`
}

type toncenterTransaction struct {
	Utime         int64                  `json:"utime"`
	TransactionId toncenterTransactionId `json:"transaction_id"`
	InMsg         *toncenterMessage      `json:"in_msg"`
}

type toncenterRunGetMethodRequest struct {
	Address string     `json:"address"`
	Method  string     `json:"method"`
	Stack   [][]string `json:"stack"`
}

type toncenterRunGetMethodResult struct {
	ExitCode int                 `json:"exit_code"`
	Stack    [][]json.RawMessage `json:"stack"`
}

type toncenterStackCell struct {
	Bytes string `json:"bytes"`
}
