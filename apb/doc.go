// Package apb models the wire level of a two-phase peripheral bus and a
// 16-register slave that speaks it.
//
// A transfer takes two cycles. In the SETUP cycle the requester raises PSel
// and presents PAddr, PWrite and PWData. In the following ACCESS cycle it also
// raises PEnable; the slave completes the transfer in that same cycle by
// raising PReady, and PSlvErr if the access was rejected.
package apb
