package dex

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"pairAlert/internal/model"
)

const (
	InterfaceRouter = "router"
	InterfaceZap    = "zap"

	// UnknownDestination is reported when calldata matches neither interface.
	UnknownDestination = "unknown"
)

// ErrUnknownCalldata is returned when calldata matches neither the router nor the zap interface.
var ErrUnknownCalldata = errors.New("calldata matches no known interface")

// CallDecoder decodes transaction calldata against the router interface, falling back to zap.
type CallDecoder struct {
	sets []callSet
}

type callSet struct {
	name string
	abi  abi.ABI
}

// NewCallDecoder builds a decoder over the router and zap ABIs.
func NewCallDecoder() (*CallDecoder, error) {
	router, err := RouterABI()
	if err != nil {
		return nil, fmt.Errorf("parse router abi: %w", err)
	}
	zap, err := ZapABI()
	if err != nil {
		return nil, fmt.Errorf("parse zap abi: %w", err)
	}
	return &CallDecoder{sets: []callSet{
		{name: InterfaceRouter, abi: router},
		{name: InterfaceZap, abi: zap},
	}}, nil
}

// Decode returns the first interface match for calldata, router before zap.
func (d *CallDecoder) Decode(calldata []byte) (model.DecodedCall, error) {
	var errs []error
	for _, set := range d.sets {
		call, err := decodeWith(set, calldata)
		if err == nil {
			return call, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", set.name, err))
	}
	return model.DecodedCall{}, fmt.Errorf("%w: %w", ErrUnknownCalldata, errors.Join(errs...))
}

func decodeWith(set callSet, calldata []byte) (model.DecodedCall, error) {
	if len(calldata) < 4 {
		return model.DecodedCall{}, fmt.Errorf("calldata too short: %d bytes", len(calldata))
	}
	method, err := set.abi.MethodById(calldata[:4])
	if err != nil {
		return model.DecodedCall{}, err
	}
	args, err := method.Inputs.Unpack(calldata[4:])
	if err != nil {
		return model.DecodedCall{}, fmt.Errorf("unpack %s: %w", method.Name, err)
	}
	return model.DecodedCall{Interface: set.name, Name: method.Name, Args: args}, nil
}

// DestinationIndex returns the argument position holding the recipient for a decoded function.
func DestinationIndex(name string) int {
	switch name {
	case "swapExactETHForTokens", "swapETHForExactTokens", "zapInEth":
		return 2
	case "zapIn", "zapOut":
		return 4
	default:
		return 3
	}
}

// Destination extracts the recipient address of a decoded call.
func Destination(call model.DecodedCall) (common.Address, error) {
	idx := DestinationIndex(call.Name)
	if idx >= len(call.Args) {
		return common.Address{}, fmt.Errorf("%s has %d args, destination index %d", call.Name, len(call.Args), idx)
	}
	addr, err := asAddress(call.Args[idx])
	if err != nil {
		return common.Address{}, fmt.Errorf("%s destination: %w", call.Name, err)
	}
	return addr, nil
}

// DestinationLabel decodes calldata and renders the recipient, or UnknownDestination with the cause.
func (d *CallDecoder) DestinationLabel(calldata []byte) (string, model.DecodedCall, error) {
	call, err := d.Decode(calldata)
	if err != nil {
		return UnknownDestination, call, err
	}
	addr, err := Destination(call)
	if err != nil {
		return UnknownDestination, call, err
	}
	return addr.Hex(), call, nil
}
