package main

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/eiannone/keyboard"

	"taskledger/consensus/conductor"
	"taskledger/consensus/escrow"
	"taskledger/database"
	"taskledger/taskledger"
)

// cliListener listens for keypresses and prints parts of the ledger, it is mostly useful while developing.
func cliListener(ledger *conductor.Ledger, bank *escrow.Bank) {
	fmt.Println("Press:\nq: to quit\np: to print projects\nw: to print your current wallet\nSee cliListener.go for more")
	for {
		r, k, err := keyboard.GetSingleKey()
		if err != nil {
			taskledger.LogCLI(err.Error(), 2)
			return
		}
		str := string(r)
		switch str {
		default:
			if k == keyboard.KeyEnter {
				fmt.Println("\n-----------------------------------")
				break
			}
			if r == 0 {
				break
			}
			fmt.Println("Key " + str + " is not bound to anything. See cliListener.go for more details.")
		case "q":
			taskledger.LogCLI("User requested to terminate", 4)
			taskledger.Shutdown()
			return //if we do not return here, we cannot ctrl+c in case of errors during shutdown
		case "w":
			w := taskledger.MyWallet()
			fmt.Printf("\nAccount: %s\nSequence: %d\nAdmin: %t\n", w.Account, ledger.Sequence(w.Account), w.Account == ledger.Admin())
		case "p":
			for _, id := range ledger.GetProjectIds() {
				info, err := ledger.GetProjectInfo(id)
				if err != nil {
					taskledger.LogCLI(err.Error(), 2)
					continue
				}
				fmt.Printf("\nProject %d:\n", id)
				spew.Dump(info)
				ids, _ := ledger.GetTaskIds(id)
				for _, tid := range ids {
					if t, err := ledger.GetTask(id, tid); err == nil {
						fmt.Printf("Task %d: %#v\n", tid, t)
					}
				}
			}
		case "m":
			for _, id := range ledger.GetProjectIds() {
				members, _ := ledger.GetTeamMembers(id)
				fmt.Printf("\nProject %d: %s\n", id, members)
			}
		case "$":
			for _, id := range ledger.GetProjectIds() {
				if s, err := ledger.PayoutSummary(id); err == nil && s.Transfers > 0 {
					fmt.Printf("\nProject %d: %+v\n", id, s)
				}
			}
			spew.Dump(bank.Balances())
		case "h":
			hs := ledger.StateHash()
			fmt.Printf("\nState: %s Sequence: %d\n", hs.Hash, hs.Sequence)
		case "K":
			for kind, mind := range ledger.Kinds() {
				fmt.Printf("Kind: %d Mind: %s\n", kind, mind)
			}
		case "S":
			if err := ledger.Persist(); err != nil {
				taskledger.LogCLI(err.Error(), 1)
				break
			}
			taskledger.LogCLI("snapshot written", 4)
		case "B":
			dst, err := database.Backup()
			if err != nil {
				taskledger.LogCLI(err.Error(), 2)
				break
			}
			taskledger.LogCLI("backed up to "+dst, 4)
		}
	}
}
