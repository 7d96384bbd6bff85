package dex

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"pairAlert/internal/model"
)

// PairDecoder decodes V2 pair Swap/Mint/Burn logs.
type PairDecoder struct {
	pairABI     abi.ABI
	topicToKind map[common.Hash]model.EventKind
}

// NewPairDecoder builds a pair log decoder.
func NewPairDecoder() (*PairDecoder, error) {
	pairABI, err := PairABI()
	if err != nil {
		return nil, err
	}

	return &PairDecoder{
		pairABI: pairABI,
		topicToKind: map[common.Hash]model.EventKind{
			pairABI.Events["Swap"].ID: model.KindSwap,
			pairABI.Events["Mint"].ID: model.KindMint,
			pairABI.Events["Burn"].ID: model.KindBurn,
		},
	}, nil
}

// Topics returns the topic0 values of the decodable events.
func (d *PairDecoder) Topics() []common.Hash {
	return []common.Hash{
		d.pairABI.Events["Swap"].ID,
		d.pairABI.Events["Mint"].ID,
		d.pairABI.Events["Burn"].ID,
	}
}

// CanDecode checks if the log's topic0 is a pair event.
func (d *PairDecoder) CanDecode(log types.Log) bool {
	if len(log.Topics) == 0 {
		return false
	}
	_, ok := d.topicToKind[log.Topics[0]]
	return ok
}

// Decode converts a raw log into a PoolEvent.
func (d *PairDecoder) Decode(log types.Log) (model.PoolEvent, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("missing topics")
	}
	kind, ok := d.topicToKind[log.Topics[0]]
	if !ok {
		return nil, fmt.Errorf("unsupported topic0: %s", log.Topics[0].Hex())
	}

	meta := model.EventMeta{
		Pair:        log.Address,
		BlockNumber: log.BlockNumber,
		TxHash:      log.TxHash,
		LogIndex:    log.Index,
	}

	var (
		event model.PoolEvent
		err   error
	)
	switch kind {
	case model.KindSwap:
		event, err = d.decodeSwap(log, meta)
	case model.KindMint:
		event, err = d.decodeMint(log, meta)
	case model.KindBurn:
		event, err = d.decodeBurn(log, meta)
	default:
		err = fmt.Errorf("unsupported event kind: %s", kind)
	}
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (d *PairDecoder) decodeSwap(log types.Log, meta model.EventMeta) (model.SwapEvent, error) {
	event := d.pairABI.Events["Swap"]

	var indexed struct {
		Sender common.Address
		To     common.Address
	}
	if err := parseIndexed(event, log.Topics, &indexed); err != nil {
		return model.SwapEvent{}, err
	}

	amounts, err := unpackAmounts(event, log.Data, 4)
	if err != nil {
		return model.SwapEvent{}, err
	}

	return model.SwapEvent{
		EventMeta:  meta,
		Sender:     indexed.Sender,
		Amount0In:  amounts[0],
		Amount1In:  amounts[1],
		Amount0Out: amounts[2],
		Amount1Out: amounts[3],
		To:         indexed.To,
	}, nil
}

func (d *PairDecoder) decodeMint(log types.Log, meta model.EventMeta) (model.MintEvent, error) {
	event := d.pairABI.Events["Mint"]

	var indexed struct {
		Sender common.Address
	}
	if err := parseIndexed(event, log.Topics, &indexed); err != nil {
		return model.MintEvent{}, err
	}

	amounts, err := unpackAmounts(event, log.Data, 2)
	if err != nil {
		return model.MintEvent{}, err
	}

	return model.MintEvent{
		EventMeta: meta,
		Sender:    indexed.Sender,
		Amount0:   amounts[0],
		Amount1:   amounts[1],
	}, nil
}

func (d *PairDecoder) decodeBurn(log types.Log, meta model.EventMeta) (model.BurnEvent, error) {
	event := d.pairABI.Events["Burn"]

	var indexed struct {
		Sender common.Address
		To     common.Address
	}
	if err := parseIndexed(event, log.Topics, &indexed); err != nil {
		return model.BurnEvent{}, err
	}

	amounts, err := unpackAmounts(event, log.Data, 2)
	if err != nil {
		return model.BurnEvent{}, err
	}

	return model.BurnEvent{
		EventMeta: meta,
		Sender:    indexed.Sender,
		Amount0:   amounts[0],
		Amount1:   amounts[1],
		To:        indexed.To,
	}, nil
}

func parseIndexed(event abi.Event, topics []common.Hash, out interface{}) error {
	args := indexedArguments(event.Inputs)
	if len(topics) != len(args)+1 {
		return fmt.Errorf("%s: expected %d topics, got %d", event.Name, len(args)+1, len(topics))
	}
	if err := abi.ParseTopics(out, args, topics[1:]); err != nil {
		return fmt.Errorf("parse %s topics: %w", event.Name, err)
	}
	return nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func unpackAmounts(event abi.Event, data []byte, want int) ([]*big.Int, error) {
	values, err := event.Inputs.NonIndexed().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", event.Name, err)
	}
	if len(values) != want {
		return nil, fmt.Errorf("unexpected %s values: %d", event.Name, len(values))
	}
	amounts := make([]*big.Int, 0, want)
	for _, value := range values {
		amount, err := asBigInt(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", event.Name, err)
		}
		amounts = append(amounts, amount)
	}
	return amounts, nil
}
