package stream

// BlockRange is an inclusive span of blocks fetched with one eth_getLogs call.
type BlockRange struct {
	From uint64
	To   uint64
}

// pollWindow plans one poll round: blocks next..head in spans of at most size,
// clipped at until when until is non-zero. Nil means the poller is caught up.
func pollWindow(next, head, until, size uint64) []BlockRange {
	tip := head
	if until != 0 && until < tip {
		tip = until
	}
	if size == 0 || next > tip {
		return nil
	}

	batches := make([]BlockRange, 0, (tip-next)/size+1)
	for start := next; ; {
		end := tip
		if tip-start >= size {
			end = start + size - 1
		}
		batches = append(batches, BlockRange{From: start, To: end})
		if end == tip {
			return batches
		}
		start = end + 1
	}
}
