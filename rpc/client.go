// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rpc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/rpc/v2/json2"
	"github.com/pewpi-infinity/portal/log"
	"github.com/pewpi-infinity/portal/playchain"
	"github.com/pewpi-infinity/portal/wallet"
)

// Client is a client for the portald JSON-RPC service.
type Client struct {
	client *http.Client
	url    string
}

// NewClient returns a client for the service at url
// (for example "http://127.0.0.1:3000/rpc").
func NewClient(url string) *Client {
	return &Client{
		client: &http.Client{Timeout: 30 * time.Second},
		url:    url,
	}
}

// domainErrors are mapped back to their sentinel values, so callers can
// compare errors returned by the client with the wallet package ones.
var domainErrors = []error{
	wallet.ErrInvalidAmount,
	wallet.ErrInsufficientFunds,
	wallet.ErrInvalidCategory,
	wallet.ErrSameLedger,
}

// call invokes method with args and decodes the result into reply.
func (c *Client) call(method string, args, reply interface{}) error {
	if args == nil {
		// a nil argument would trigger an error, send empty object instead
		args = struct{}{}
	}
	buf, err := json2.EncodeClientRequest(method, args)
	if err != nil {
		return log.Error(err)
	}
	resp, err := c.client.Post(c.url, "application/json", bytes.NewReader(buf))
	if err != nil {
		return log.Error(err)
	}
	defer resp.Body.Close()
	// JSON-RPC errors may come with a non-200 status, decode them anyway
	err = json2.DecodeClientResponse(resp.Body, reply)
	if err == nil {
		return nil
	}
	if jerr, ok := err.(*json2.Error); ok {
		for _, derr := range domainErrors {
			if jerr.Message == derr.Error() {
				return derr
			}
		}
		return log.Errorf("rpc: %s: %s", method, jerr.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return log.Errorf("rpc: %s: HTTP status %s", method, resp.Status)
	}
	return log.Error(err)
}

// Earn calls Wallet.Earn and returns the new balance.
func (c *Client) Earn(account, category string, amount int64, source, description string) (int64, error) {
	var reply BalanceReply
	err := c.call("Wallet.Earn", &EarnArgs{
		Account:     account,
		Category:    category,
		Amount:      amount,
		Source:      source,
		Description: description,
	}, &reply)
	return reply.Balance, err
}

// Spend calls Wallet.Spend and returns the new balance.
func (c *Client) Spend(account, category string, amount int64, source, description string) (int64, error) {
	var reply BalanceReply
	err := c.call("Wallet.Spend", &EarnArgs{
		Account:     account,
		Category:    category,
		Amount:      amount,
		Source:      source,
		Description: description,
	}, &reply)
	return reply.Balance, err
}

// Balance calls Wallet.Balance.
func (c *Client) Balance(account, category string) (int64, error) {
	var reply BalanceReply
	err := c.call("Wallet.Balance", &BalanceArgs{Account: account, Category: category}, &reply)
	return reply.Balance, err
}

// AllBalances calls Wallet.AllBalances.
func (c *Client) AllBalances(account string) (map[string]int64, error) {
	var reply BalancesReply
	if err := c.call("Wallet.AllBalances", &AccountArgs{Account: account}, &reply); err != nil {
		return nil, err
	}
	return reply.Balances, nil
}

// History calls Wallet.History.
func (c *Client) History(account string, limit int) ([]wallet.Transaction, error) {
	var reply HistoryReply
	if err := c.call("Wallet.History", &HistoryArgs{Account: account, Limit: limit}, &reply); err != nil {
		return nil, err
	}
	return reply.Transactions, nil
}

// Transfer calls Wallet.Transfer.
func (c *Client) Transfer(from, to, category string, amount int64, source, description string) (*TransferReply, error) {
	var reply TransferReply
	err := c.call("Wallet.Transfer", &TransferArgs{
		From:        from,
		To:          to,
		Category:    category,
		Amount:      amount,
		Source:      source,
		Description: description,
	}, &reply)
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

// Append calls Chain.Append with the JSON encoding of payload.
func (c *Client) Append(account string, payload interface{}) (*playchain.Entry, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, log.Error(err)
	}
	var reply EntryReply
	if err := c.call("Chain.Append", &AppendArgs{Account: account, Payload: data}, &reply); err != nil {
		return nil, err
	}
	return &reply.Entry, nil
}

// Verify calls Chain.Verify.
func (c *Client) Verify(account string) (*VerifyReply, error) {
	var reply VerifyReply
	if err := c.call("Chain.Verify", &AccountArgs{Account: account}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// Tail calls Chain.Tail.
func (c *Client) Tail(account string, n int) ([]playchain.Entry, error) {
	var reply TailReply
	if err := c.call("Chain.Tail", &TailArgs{Account: account, N: n}, &reply); err != nil {
		return nil, err
	}
	return reply.Entries, nil
}
