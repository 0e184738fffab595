// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rpc implements the JSON-RPC 2.0 over HTTP service of portald and a
// client for it.
//
// The service "Wallet" offers Earn, Spend, Balance, AllBalances, History and
// Transfer; the service "Chain" offers Append, Verify and Tail.
package rpc

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/rpc/v2"
	"github.com/gorilla/rpc/v2/json2"
	"github.com/pewpi-infinity/portal/def"
	"github.com/pewpi-infinity/portal/kvstore"
	"github.com/pewpi-infinity/portal/log"
	"github.com/pewpi-infinity/portal/playchain"
	"github.com/pewpi-infinity/portal/wallet"
)

// AccountArgs selects an account. An empty account is def.DefaultAccount.
type AccountArgs struct {
	Account string
}

// EarnArgs are the arguments of Wallet.Earn and Wallet.Spend.
type EarnArgs struct {
	Account     string
	Category    string
	Amount      int64
	Source      string
	Description string
}

// BalanceArgs are the arguments of Wallet.Balance.
type BalanceArgs struct {
	Account  string
	Category string
}

// BalanceReply is the reply of Wallet.Earn, Wallet.Spend and Wallet.Balance.
type BalanceReply struct {
	Account  string
	Category string
	Balance  int64
}

// BalancesReply is the reply of Wallet.AllBalances.
type BalancesReply struct {
	Account  string
	Balances map[string]int64
}

// HistoryArgs are the arguments of Wallet.History. A negative Limit
// (wallet.All) requests the complete history.
type HistoryArgs struct {
	Account string
	Limit   int
}

// HistoryReply is the reply of Wallet.History.
type HistoryReply struct {
	Transactions []wallet.Transaction
}

// TransferArgs are the arguments of Wallet.Transfer.
type TransferArgs struct {
	From        string
	To          string
	Category    string
	Amount      int64
	Source      string
	Description string
}

// TransferReply is the reply of Wallet.Transfer.
type TransferReply struct {
	FromBalance int64
	ToBalance   int64
}

// AppendArgs are the arguments of Chain.Append.
type AppendArgs struct {
	Account string
	Payload json.RawMessage
}

// EntryReply is the reply of Chain.Append.
type EntryReply struct {
	Entry playchain.Entry
}

// VerifyReply is the reply of Chain.Verify.
type VerifyReply struct {
	Valid  bool
	Index  int // first broken entry, -1 if Valid
	Length int
}

// TailArgs are the arguments of Chain.Tail. A negative N (playchain.All)
// requests the complete chain.
type TailArgs struct {
	Account string
	N       int
}

// TailReply is the reply of Chain.Tail.
type TailReply struct {
	Entries []playchain.Entry
}

// WalletService is the "Wallet" JSON-RPC service.
type WalletService struct {
	accounts *Accounts
}

// Earn credits tokens.
func (s *WalletService) Earn(r *http.Request, args *EarnArgs, reply *BalanceReply) error {
	w, err := s.accounts.Wallet(args.Account)
	if err != nil {
		return err
	}
	balance, err := w.Earn(args.Category, args.Amount, args.Source, args.Description)
	if err != nil {
		return err
	}
	*reply = BalanceReply{Account: w.Account(), Category: args.Category, Balance: balance}
	return nil
}

// Spend debits tokens.
func (s *WalletService) Spend(r *http.Request, args *EarnArgs, reply *BalanceReply) error {
	w, err := s.accounts.Wallet(args.Account)
	if err != nil {
		return err
	}
	balance, err := w.Spend(args.Category, args.Amount, args.Source, args.Description)
	if err != nil {
		return err
	}
	*reply = BalanceReply{Account: w.Account(), Category: args.Category, Balance: balance}
	return nil
}

// Balance returns the balance of a category.
func (s *WalletService) Balance(r *http.Request, args *BalanceArgs, reply *BalanceReply) error {
	w, err := s.accounts.Wallet(args.Account)
	if err != nil {
		return err
	}
	*reply = BalanceReply{
		Account:  w.Account(),
		Category: args.Category,
		Balance:  w.Balance(args.Category),
	}
	return nil
}

// AllBalances returns the balances of all categories.
func (s *WalletService) AllBalances(r *http.Request, args *AccountArgs, reply *BalancesReply) error {
	w, err := s.accounts.Wallet(args.Account)
	if err != nil {
		return err
	}
	*reply = BalancesReply{Account: w.Account(), Balances: w.AllBalances()}
	return nil
}

// History returns the most recent transactions, newest first.
func (s *WalletService) History(r *http.Request, args *HistoryArgs, reply *HistoryReply) error {
	w, err := s.accounts.Wallet(args.Account)
	if err != nil {
		return err
	}
	reply.Transactions = w.History(args.Limit)
	return nil
}

// Transfer moves tokens between two accounts.
func (s *WalletService) Transfer(r *http.Request, args *TransferArgs, reply *TransferReply) error {
	from, err := s.accounts.Wallet(args.From)
	if err != nil {
		return err
	}
	to, err := s.accounts.Wallet(args.To)
	if err != nil {
		return err
	}
	err = wallet.Transfer(from, to, args.Category, args.Amount, args.Source, args.Description)
	if err != nil {
		return err
	}
	reply.FromBalance = from.Balance(args.Category)
	reply.ToBalance = to.Balance(args.Category)
	return nil
}

// ChainService is the "Chain" JSON-RPC service.
type ChainService struct {
	accounts *Accounts
}

// Append adds an entry to the play chain.
func (s *ChainService) Append(r *http.Request, args *AppendArgs, reply *EntryReply) error {
	c, err := s.accounts.Chain(args.Account)
	if err != nil {
		return err
	}
	payload := args.Payload
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	entry, err := c.Append(payload)
	if err != nil {
		return err
	}
	reply.Entry = entry
	return nil
}

// Verify checks the play chain.
func (s *ChainService) Verify(r *http.Request, args *AccountArgs, reply *VerifyReply) error {
	c, err := s.accounts.Chain(args.Account)
	if err != nil {
		return err
	}
	reply.Index, reply.Valid = c.Verify()
	reply.Length = c.Len()
	return nil
}

// Tail returns the last entries of the play chain, oldest first.
func (s *ChainService) Tail(r *http.Request, args *TailArgs, reply *TailReply) error {
	c, err := s.accounts.Chain(args.Account)
	if err != nil {
		return err
	}
	reply.Entries = c.Tail(args.N)
	return nil
}

// NewServer returns a JSON-RPC server for the accounts in store.
func NewServer(store kvstore.Store) (*rpc.Server, error) {
	accounts := NewAccounts(store)
	s := rpc.NewServer()
	s.RegisterCodec(json2.NewCodec(), "application/json")
	if err := s.RegisterService(&WalletService{accounts: accounts}, "Wallet"); err != nil {
		return nil, log.Error(err)
	}
	if err := s.RegisterService(&ChainService{accounts: accounts}, "Chain"); err != nil {
		return nil, log.Error(err)
	}
	return s, nil
}

// Handler returns an http.Handler serving the JSON-RPC server for store
// at def.RPCPath.
func Handler(store kvstore.Store) (http.Handler, error) {
	s, err := NewServer(store)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle(def.RPCPath, s)
	return mux, nil
}
