// Package verif is a self-checking verification environment for the apb
// slave.
//
// Five components run as processes of one timing.Kernel:
//
//	Generator -> Driver -> (bus) -> Slave
//	                         |
//	                      Monitor -> Scoreboard
//
// The generator issues one transaction at a time and waits for both the
// driver ("handshake done") and the scoreboard ("verified") before issuing
// the next, so exactly one transaction is in flight. The scoreboard keeps its
// own reference memory and judges the slave only by what the monitor saw on
// the bus.
package verif
