package alert

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"pairAlert/internal/model"
	"pairAlert/internal/units"
)

const separator = "----------------------------"

// Labels names the pair's token sides in messages.
type Labels struct {
	Token0 string
	Token1 string
}

// MessageFormatter renders alert text. Lines are joined with "\n"; the
// dispatcher handles URL encoding.
type MessageFormatter struct {
	Labels      Labels
	Decimals    uint8
	ExplorerURL string
}

// Swap renders a swap alert. Each amount line appears only when the amount
// is non-zero.
func (f MessageFormatter) Swap(ev model.SwapEvent, from common.Address, destination string) string {
	var b strings.Builder
	b.WriteString("========== [SWAP] ==========\n")
	if ev.Amount1In != nil && ev.Amount1In.Sign() > 0 {
		fmt.Fprintf(&b, "%s In: %s\n", f.Labels.Token1, units.Format(ev.Amount1In, f.Decimals))
	}
	if ev.Amount0Out != nil && ev.Amount0Out.Sign() > 0 {
		fmt.Fprintf(&b, "%s Out: %s\n%s\n", f.Labels.Token0, units.Format(ev.Amount0Out, f.Decimals), separator)
	}
	if ev.Amount0In != nil && ev.Amount0In.Sign() > 0 {
		fmt.Fprintf(&b, "%s In: %s\n", f.Labels.Token0, units.Format(ev.Amount0In, f.Decimals))
	}
	if ev.Amount1Out != nil && ev.Amount1Out.Sign() > 0 {
		fmt.Fprintf(&b, "%s Out: %s\n%s\n", f.Labels.Token1, units.Format(ev.Amount1Out, f.Decimals), separator)
	}
	fmt.Fprintf(&b, "from: %s\n", from.Hex())
	fmt.Fprintf(&b, "to: %s\n", destination)
	b.WriteString(f.txLine(ev.TxHash))
	return b.String()
}

// Mint renders an add-liquidity alert.
func (f MessageFormatter) Mint(ev model.MintEvent) string {
	var b strings.Builder
	b.WriteString("========== [ADD LIQUIDITY] ==========\n")
	f.writeReserves(&b, ev.Amount0, ev.Amount1)
	b.WriteString(f.txLine(ev.TxHash))
	return b.String()
}

// Burn renders a remove-liquidity alert including the recipient.
func (f MessageFormatter) Burn(ev model.BurnEvent) string {
	var b strings.Builder
	b.WriteString("========== [REMOVE LIQUIDITY] ==========\n")
	f.writeReserves(&b, ev.Amount0, ev.Amount1)
	fmt.Fprintf(&b, "to: %s\n", ev.To.Hex())
	b.WriteString(f.txLine(ev.TxHash))
	return b.String()
}

// token1 is listed first.
func (f MessageFormatter) writeReserves(b *strings.Builder, amount0, amount1 *big.Int) {
	fmt.Fprintf(b, "%s: %s\n", f.Labels.Token1, units.Format(amount1, f.Decimals))
	fmt.Fprintf(b, "%s: %s\n", f.Labels.Token0, units.Format(amount0, f.Decimals))
	b.WriteString(separator + "\n")
}

func (f MessageFormatter) txLine(hash common.Hash) string {
	return fmt.Sprintf("txHash: %s/tx/%s", strings.TrimRight(f.ExplorerURL, "/"), hash.Hex())
}
