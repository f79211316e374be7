package ton

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/magicpot/indexer/src/utils/build_info"
	"github.com/magicpot/indexer/src/utils/config"
	"github.com/magicpot/indexer/src/utils/logger"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"
	"golang.org/x/time/rate"
)

// ChainClient talking to a toncenter HTTP API v2 endpoint
type Toncenter struct {
	client  *resty.Client
	config  *config.Config
	log     *logrus.Entry
	limiter *rate.Limiter

	mtx         sync.Mutex
	initialized bool
}

func NewToncenter(config *config.Config) (self *Toncenter) {
	self = new(Toncenter)
	self.config = config
	self.log = logger.NewSublogger("toncenter")

	limit := rate.Inf
	if config.Ton.Limit > 0 {
		limit = rate.Limit(config.Ton.Limit)
	}
	self.limiter = rate.NewLimiter(limit, 1)

	self.client =
		resty.New().
			SetBaseURL(config.Ton.Endpoint).
			SetTimeout(config.Ton.RequestTimeout).
			SetHeader("User-Agent", "magicpot/indexer/"+build_info.Version).
			SetRetryCount(2).
			SetRetryWaitTime(time.Second).
			SetRetryMaxWaitTime(5 * time.Second).
			SetLogger(newRestyLogger(true /*force all logs to trace*/)).
			SetTransport(self.createTransport()).
			AddRetryCondition(self.onRetryCondition).
			OnBeforeRequest(self.onRateLimit).
			OnAfterResponse(self.onStatusToError)

	if config.Ton.ApiKey != "" {
		self.client.SetHeader("X-API-Key", config.Ton.ApiKey)
	}

	return
}

func (self *Toncenter) createTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   self.config.Ton.DialerTimeout,
		KeepAlive: self.config.Ton.DialerKeepAlive,
	}

	return &http.Transport{
		ForceAttemptHTTP2:     true,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   self.config.Ton.TLSHandshakeTimeout,
		ExpectContinueTimeout: 1 * time.Second,
		IdleConnTimeout:       self.config.Ton.IdleConnTimeout,
		MaxIdleConns:          2,
		MaxIdleConnsPerHost:   2,
	}
}

func (self *Toncenter) onRateLimit(c *resty.Client, req *resty.Request) error {
	return self.limiter.Wait(req.Context())
}

// Returns true if request should be retried
func (self *Toncenter) onRetryCondition(resp *resty.Response, err error) bool {
	if resp == nil || resp.RawResponse == nil {
		// Transport level failure
		return err != nil
	}

	// Toncenter answers 429 when the key's limit is exceeded
	return resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= 500
}

func (self *Toncenter) onStatusToError(c *resty.Client, resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}

	body := resp.Body()
	if len(body) > 256 {
		body = body[:256]
	}

	self.log.WithField("status", resp.StatusCode()).
		WithField("resp", string(body)).
		WithField("url", resp.Request.URL).
		Debug("Request failed")

	return fmt.Errorf("unexpected status: %s", resp.Status())
}

func call[T any](ctx context.Context, req *resty.Request, method, path string) (out T, err error) {
	var envelope toncenterResponse[T]
	// Proxies may drop or rewrite Content-Type, the body is always JSON
	_, err = req.
		SetContext(ctx).
		ForceContentType("application/json").
		SetResult(&envelope).
		SetError(&envelope).
		Execute(method, path)
	if err != nil {
		return
	}

	if !envelope.Ok {
		err = fmt.Errorf("%w: %s %s: %s (code %d)", ErrBadResponse, method, path, envelope.Error, envelope.Code)
		return
	}

	return envelope.Result, nil
}

func (self *Toncenter) InitIfNeeded(ctx context.Context) (err error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	if self.initialized {
		return nil
	}

	info, err := call[toncenterMasterchainInfo](ctx, self.client.R(), resty.MethodGet, "/getMasterchainInfo")
	if err != nil {
		return fmt.Errorf("failed to initialize toncenter client: %w", err)
	}

	self.log.WithField("seqno", info.Last.Seqno).
		WithField("endpoint", self.config.Ton.Endpoint).
		Info("Connected")

	self.initialized = true
	return nil
}

func (self *Toncenter) Deinit() {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.initialized = false
}

func (self *Toncenter) Sync(ctx context.Context) (seqno int64, err error) {
	info, err := call[toncenterMasterchainInfo](ctx, self.client.R(), resty.MethodGet, "/getMasterchainInfo")
	if err != nil {
		return
	}
	return info.Last.Seqno, nil
}

func (self *Toncenter) RawGetAccountState(ctx context.Context, addr string) (state AccountState, err error) {
	req := self.client.R().SetQueryParam("address", addr)
	info, err := call[toncenterAddressInformation](ctx, req, resty.MethodGet, "/getAddressInformation")
	if err != nil {
		return
	}

	state.LastTransaction = TransactionId{
		Lt:   info.LastTransactionId.Lt,
		Hash: info.LastTransactionId.Hash,
	}
	state.SyncTime = time.Unix(info.SyncUtime, 0).UTC()
	return
}

func (self *Toncenter) RawGetTransactions(ctx context.Context, addr string, from TransactionId) (page TransactionsPage, err error) {
	limit := self.config.Ton.TransactionsPageSize
	if limit <= 0 {
		limit = 20
	}

	// One more than needed, the extra one only tells where the next page starts
	req := self.client.R().
		SetQueryParam("address", addr).
		SetQueryParam("limit", strconv.Itoa(limit+1)).
		SetQueryParam("lt", strconv.FormatInt(from.Lt, 10)).
		SetQueryParam("hash", from.Hash).
		SetQueryParam("archival", "true")

	txs, err := call[[]toncenterTransaction](ctx, req, resty.MethodGet, "/getTransactions")
	if err != nil {
		return
	}

	if len(txs) > limit {
		extra := txs[limit]
		page.Previous = TransactionId{Lt: extra.TransactionId.Lt, Hash: extra.TransactionId.Hash}
		txs = txs[:limit]
	}

	page.Transactions = make([]RawTransaction, 0, len(txs))
	for _, tx := range txs {
		raw := RawTransaction{
			Id:   TransactionId{Lt: tx.TransactionId.Lt, Hash: tx.TransactionId.Hash},
			Time: time.Unix(tx.Utime, 0).UTC(),
		}

		if tx.InMsg != nil {
			raw.InMsg, err = self.parseMessage(tx.InMsg)
			if err != nil {
				return TransactionsPage{}, err
			}
		}

		page.Transactions = append(page.Transactions, raw)
	}

	return
}

func (self *Toncenter) parseMessage(msg *toncenterMessage) (out *InboundMessage, err error) {
	out = &InboundMessage{
		Source: msg.Source,
		Value:  new(big.Int),
	}

	if msg.Value != "" {
		_, ok := out.Value.SetString(msg.Value, 10)
		if !ok {
			return nil, fmt.Errorf("%w: message value %q", ErrBadResponse, msg.Value)
		}
	}

	// Text comments carry no body cell
	if msg.MsgData.Type == "msg.dataRaw" && msg.MsgData.Body != "" {
		out.Body, err = base64.StdEncoding.DecodeString(msg.MsgData.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: message body: %s", ErrBadResponse, err)
		}
	}

	return
}

func (self *Toncenter) GetJettonWallet(ctx context.Context, master, owner string) (wallet string, err error) {
	ownerAddr, err := ParseAddress(owner)
	if err != nil {
		return
	}

	arg := cell.BeginCell()
	err = arg.StoreAddr(ownerAddr)
	if err != nil {
		return
	}

	body := toncenterRunGetMethodRequest{
		Address: master,
		Method:  "get_wallet_address",
		Stack: [][]string{
			{"tvm.Slice", base64.StdEncoding.EncodeToString(arg.EndCell().ToBOC())},
		},
	}

	req := self.client.R().SetBody(body)
	result, err := call[toncenterRunGetMethodResult](ctx, req, resty.MethodPost, "/runGetMethod")
	if err != nil {
		return
	}

	if result.ExitCode != 0 {
		err = fmt.Errorf("%w: get_wallet_address exit code %d", ErrBadResponse, result.ExitCode)
		return
	}

	addr, err := parseStackAddress(result.Stack)
	if err != nil {
		return
	}

	return ToContract(addr, self.config.Ton.Testnet), nil
}

// Address returned as the first stack entry, serialized in a cell
func parseStackAddress(stack [][]json.RawMessage) (addr *address.Address, err error) {
	if len(stack) == 0 || len(stack[0]) != 2 {
		return nil, fmt.Errorf("%w: unexpected stack shape", ErrBadResponse)
	}

	var kind string
	err = json.Unmarshal(stack[0][0], &kind)
	if err != nil {
		return
	}
	if kind != "cell" && kind != "slice" {
		return nil, fmt.Errorf("%w: unexpected stack entry %q", ErrBadResponse, kind)
	}

	var entry toncenterStackCell
	err = json.Unmarshal(stack[0][1], &entry)
	if err != nil {
		return
	}

	boc, err := base64.StdEncoding.DecodeString(entry.Bytes)
	if err != nil {
		return
	}

	c, err := cell.FromBOC(boc)
	if err != nil {
		return
	}

	addr, err = c.BeginParse().LoadAddr()
	if err != nil {
		return
	}
	if addr.Type() != address.StdAddress {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, ErrBadResponse)
	}

	return
}
