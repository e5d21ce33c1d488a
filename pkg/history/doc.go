// Package history provides a fixed-capacity FIFO buffer used to keep the most
// recent diagnostic records of a connection.
//
// A History never grows beyond its capacity. Once full, every Push evicts the
// oldest item, so the buffer always holds the newest items in insertion order:
//
//	h := history.New[error](3)
//	for i := 0; i < 5; i++ {
//	    h.Push(fmt.Errorf("err %d", i))
//	}
//	// h.Items() == [err 2, err 3, err 4]
//
// Items handed to New or Concat beyond the capacity are dropped from the front
// without notice.
//
// A History is not safe for concurrent use; its owner serializes access.
package history
