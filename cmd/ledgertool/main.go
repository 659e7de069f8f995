package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"taskledger/auxiliarium/projects"
	"taskledger/auxiliarium/tasks"
	"taskledger/consensus/conductor"
	"taskledger/consensus/escrow"
	"taskledger/taskledger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	conf := viper.New()
	taskledger.InitConfig(conf)
	taskledger.SetConfig(conf)

	if len(os.Args) < 2 {
		usage()
		return
	}
	wallet := taskledger.MyWallet()
	if os.Args[1] == "account" {
		fmt.Println(wallet.Account)
		return
	}
	kind, content, err := build(os.Args[1], os.Args[2:])
	if err != nil {
		fmt.Println("ERROR: " + err.Error())
		usage()
		os.Exit(1)
	}
	seq, err := nextSequence(conf.GetString("httpAddr"), wallet.Account)
	if err != nil {
		fmt.Println("ERROR: could not get the current sequence from the ledger, is it running? " + err.Error())
		os.Exit(1)
	}
	e, err := taskledger.SignEvent(wallet.PrivateKey, kind, seq, content, time.Now())
	if err != nil {
		fmt.Println("ERROR: " + err.Error())
		os.Exit(1)
	}
	b, err := json.Marshal([]interface{}{"EVENT", e.Nostr()})
	if err != nil {
		fmt.Println("ERROR: " + err.Error())
		os.Exit(1)
	}
	fmt.Println(string(b))
}

func build(op string, args []string) (int64, string, error) {
	var kind int64
	var v interface{}
	switch op {
	case "createProject":
		if len(args) < 2 {
			return 0, "", fmt.Errorf("createProject needs a name and at least one member")
		}
		kind = conductor.KindCreateProject
		v = projects.Kind650100{Name: args[0], Members: args[1:]}
	case "addMember":
		if len(args) != 2 {
			return 0, "", fmt.Errorf("addMember needs a project and a member")
		}
		p, err := cast.ToUint64E(args[0])
		if err != nil {
			return 0, "", err
		}
		kind = conductor.KindAddTeamMember
		v = projects.Kind650102{Project: p, Member: args[1]}
	case "createTask":
		if len(args) < 5 {
			return 0, "", fmt.Errorf("createTask needs a project, assignee, reward, deadline and description")
		}
		p, err := cast.ToUint64E(args[0])
		if err != nil {
			return 0, "", err
		}
		reward, err := cast.ToUint64E(args[2])
		if err != nil {
			return 0, "", err
		}
		deadline, err := parseDeadline(args[3])
		if err != nil {
			return 0, "", err
		}
		kind = conductor.KindCreateTask
		v = tasks.Kind650104{
			Project:     p,
			AssignedTo:  args[1],
			Reward:      reward,
			Deadline:    deadline.Unix(),
			Description: strings.Join(args[4:], " "),
		}
	case "completeTask":
		if len(args) != 2 {
			return 0, "", fmt.Errorf("completeTask needs a project and a task")
		}
		p, err := cast.ToUint64E(args[0])
		if err != nil {
			return 0, "", err
		}
		t, err := cast.ToUint64E(args[1])
		if err != nil {
			return 0, "", err
		}
		kind = conductor.KindCompleteTask
		v = tasks.Kind650106{Project: p, Task: t}
	case "verify":
		if len(args) != 2 {
			return 0, "", fmt.Errorf("verify needs a project and the funds to attach")
		}
		p, err := cast.ToUint64E(args[0])
		if err != nil {
			return 0, "", err
		}
		funds, err := cast.ToUint64E(args[1])
		if err != nil {
			return 0, "", err
		}
		kind = conductor.KindVerifyProject
		v = escrow.Kind650108{Project: p, Funds: funds}
	default:
		return 0, "", fmt.Errorf("unknown operation %q", op)
	}
	b, err := json.Marshal(v)
	return kind, string(b), err
}

// parseDeadline accepts an RFC3339 time or a duration from now such as 72h.
func parseDeadline(s string) (time.Time, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return time.Now().Add(d), nil
	}
	return time.Parse(time.RFC3339, s)
}

func nextSequence(addr string, account taskledger.Account) (int64, error) {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + addr + "/sequence/" + account)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%s: %s", resp.Status, b)
	}
	current, err := cast.ToInt64E(strings.TrimSpace(string(b)))
	if err != nil {
		return 0, err
	}
	return current + 1, nil
}

func usage() {
	fmt.Println()
	fmt.Println("TASKLEDGER TOOL USAGE")
	fmt.Println()
	fmt.Println("Builds a signed operation with your local wallet and prints it as a relay message,")
	fmt.Println("ready to be sent to the ledger's websocket. The ledger must be running so that the")
	fmt.Println("next sequence number can be looked up.")
	fmt.Println()
	fmt.Println("ledgertool account")
	fmt.Println("ledgertool createProject <name> <member> [member...]")
	fmt.Println("ledgertool addMember <project> <member>")
	fmt.Println("ledgertool createTask <project> <assignee> <reward> <deadline: RFC3339 or duration> <description...>")
	fmt.Println("ledgertool completeTask <project> <task>")
	fmt.Println("ledgertool verify <project> <funds>")
	fmt.Println()
}
