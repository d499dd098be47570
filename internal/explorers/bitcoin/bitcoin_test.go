package bitcoin

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/marko911/tx-lookup/pkg/blockchain"
	"github.com/marko911/tx-lookup/pkg/explorer"
	"github.com/marko911/tx-lookup/pkg/txdata"
)

const blockcypherConfirmed = `{
  "confirmations": 42,
  "received": "2017-05-03T15:03:21.873Z",
  "inputs": [{"addresses": ["1AwdUWQzJgfDDjeKtpPzMfYMHejFBrxZfo"]}],
  "outputs": [
    {"script": "76a914", "addresses": ["1AwdUWQzJgfDDjeKtpPzMfYMHejFBrxZfo"], "spent_by": "f3a8"},
    {"script": "76a915", "addresses": ["1Q3P94rdNyftFBEKiN1fxmt2HnQgSCB619"]},
    {"script": "6a20b2ceea1d52627b6ed8d919ad1039eca32f6e099ef4a357cbb7f7361c471ea6c8", "addresses": null}
  ]
}`

const blockstreamConfirmed = `{
  "status": {"confirmed": true, "block_time": 1493824563},
  "vin": [{"prevout": {"scriptpubkey_address": "1AwdUWQzJgfDDjeKtpPzMfYMHejFBrxZfo"}}],
  "vout": [
    {"scriptpubkey": "76a914", "scriptpubkey_address": "1AwdUWQzJgfDDjeKtpPzMfYMHejFBrxZfo"},
    {"scriptpubkey": "6a20b2ceea1d52627b6ed8d919ad1039eca32f6e099ef4a357cbb7f7361c471ea6c8"}
  ]
}`

const insightConfirmed = `{
  "confirmations": 10,
  "blocktime": 1493824563,
  "vout": [
    {"spentTxId": "abcd", "scriptPubKey": {"hex": "76a914", "addresses": ["1AwdUWQzJgfDDjeKtpPzMfYMHejFBrxZfo"]}},
    {"scriptPubKey": {"hex": "6a20b2ceea1d52627b6ed8d919ad1039eca32f6e099ef4a357cbb7f7361c471ea6c8"}}
  ]
}`

const remoteHash = "b2ceea1d52627b6ed8d919ad1039eca32f6e099ef4a357cbb7f7361c471ea6c8"

func TestParsers(t *testing.T) {
	tests := []struct {
		name    string
		adapter explorer.Adapter
		body    string
		want    *txdata.Record
	}{
		{
			name:    "blockcypher",
			adapter: Blockcypher(),
			body:    blockcypherConfirmed,
			want: &txdata.Record{
				RemoteHash:       remoteHash,
				IssuingAddress:   "1AwdUWQzJgfDDjeKtpPzMfYMHejFBrxZfo",
				Time:             time.Date(2017, 5, 3, 15, 3, 21, 873000000, time.UTC),
				RevokedAddresses: []string{"1AwdUWQzJgfDDjeKtpPzMfYMHejFBrxZfo"},
			},
		},
		{
			name:    "blockstream",
			adapter: Blockstream(),
			body:    blockstreamConfirmed,
			want: &txdata.Record{
				RemoteHash:       remoteHash,
				IssuingAddress:   "1AwdUWQzJgfDDjeKtpPzMfYMHejFBrxZfo",
				Time:             time.Unix(1493824563, 0).UTC(),
				RevokedAddresses: []string{"1AwdUWQzJgfDDjeKtpPzMfYMHejFBrxZfo"},
			},
		},
		{
			name:    "bitpay",
			adapter: Bitpay(),
			body:    insightConfirmed,
			want: &txdata.Record{
				RemoteHash:       remoteHash,
				IssuingAddress:   "1AwdUWQzJgfDDjeKtpPzMfYMHejFBrxZfo",
				Time:             time.Unix(1493824563, 0).UTC(),
				RevokedAddresses: []string{"1AwdUWQzJgfDDjeKtpPzMfYMHejFBrxZfo"},
			},
		},
		{
			name:    "blockexplorer",
			adapter: Blockexplorer(),
			body:    insightConfirmed,
			want: &txdata.Record{
				RemoteHash:       remoteHash,
				IssuingAddress:   "1AwdUWQzJgfDDjeKtpPzMfYMHejFBrxZfo",
				Time:             time.Unix(1493824563, 0).UTC(),
				RevokedAddresses: []string{"1AwdUWQzJgfDDjeKtpPzMfYMHejFBrxZfo"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.adapter.Parse(context.Background(), explorer.ParseContext{
				Response: []byte(tt.body),
				Chain:    blockchain.Bitcoin,
			})
			if err != nil {
				t.Fatalf("Parse() error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParsersRejectUnconfirmed(t *testing.T) {
	tests := []struct {
		name    string
		adapter explorer.Adapter
		body    string
	}{
		{"blockcypher", Blockcypher(), `{"confirmations": 0, "inputs": [], "outputs": []}`},
		{"blockstream", Blockstream(), `{"status": {"confirmed": false}}`},
		{"bitpay", Bitpay(), `{"confirmations": 0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.adapter.Parse(context.Background(), explorer.ParseContext{Response: []byte(tt.body)})
			if !errors.Is(err, ErrNotConfirmed) {
				t.Fatalf("Parse() error = %v, want ErrNotConfirmed", err)
			}
		})
	}
}

func TestParsersRejectMalformed(t *testing.T) {
	_, err := Blockstream().Parse(context.Background(), explorer.ParseContext{
		Response: []byte(`{"status": {"confirmed": true}, "vin": [], "vout": []}`),
	})
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("Parse() error = %v, want ErrMalformed", err)
	}
}

func TestURLs(t *testing.T) {
	tests := []struct {
		adapter explorer.Adapter
		chain   blockchain.Chain
		want    string
	}{
		{Blockcypher(), blockchain.Bitcoin, "https://api.blockcypher.com/v1/btc/main/txs/abc?limit=500"},
		{Blockcypher(), blockchain.Testnet, "https://api.blockcypher.com/v1/btc/test3/txs/abc?limit=500"},
		{Blockstream(), blockchain.Bitcoin, "https://blockstream.info/api/tx/abc"},
		{Blockstream(), blockchain.Testnet, "https://blockstream.info/testnet/api/tx/abc"},
		{Bitpay(), blockchain.Testnet, "https://api.bitcore.io/api/BTC/testnet/tx/abc"},
		{Blockexplorer(), blockchain.Bitcoin, "https://blockexplorer.com/api/tx/abc"},
	}
	for _, tt := range tests {
		got, err := explorer.BuildURL(tt.adapter, "abc", tt.chain)
		if err != nil {
			t.Fatalf("BuildURL(%s) error: %v", tt.adapter.Name(), err)
		}
		if got != tt.want {
			t.Errorf("BuildURL(%s, %s) = %q, want %q", tt.adapter.Name(), tt.chain, got, tt.want)
		}
	}
}

func TestDefaultList(t *testing.T) {
	list := Explorers()
	if len(list) != 2 || list[0].ServiceName != explorer.ServiceBlockcypher || list[1].ServiceName != explorer.ServiceBlockstream {
		t.Fatalf("unexpected default list: %+v", list)
	}
	for _, a := range All() {
		if a.Priority != explorer.PriorityBuiltIn {
			t.Errorf("%s priority = %d, want built-in", a.Name(), a.Priority)
		}
	}
}
