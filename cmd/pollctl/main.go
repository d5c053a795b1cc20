// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Command pollctl creates, shows, votes on and watches livepoll polls.
//
//	pollctl create "Best color?" Red Blue
//	pollctl show <poll-id>
//	pollctl vote <poll-id> <option-number>
//	pollctl watch <poll-id>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/danielhkuo/livepoll/clientstate"
	"github.com/danielhkuo/livepoll/models"
	"github.com/danielhkuo/livepoll/pollclient"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "pollctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("pollctl", flag.ContinueOnError)
	server := fs.String("server", envOr("LIVEPOLL_URL", "http://localhost:5000"), "Server base URL")
	statePath := fs.String("state", "", "Vote state file (default: user config dir)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	path := *statePath
	if path == "" {
		var err error
		if path, err = clientstate.DefaultPath(); err != nil {
			return fmt.Errorf("locate state file: %w", err)
		}
	}

	client, err := pollclient.New(*server, pollclient.WithState(clientstate.New(clientstate.NewFileKV(path))))
	if err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return errors.New("usage: pollctl [-server url] create|show|vote|watch ...")
	}

	switch cmd, cmdArgs := rest[0], rest[1:]; cmd {
	case "create":
		return create(ctx, client, cmdArgs, out)
	case "show":
		return show(ctx, client, cmdArgs, out)
	case "vote":
		return castVote(ctx, client, cmdArgs, out)
	case "watch":
		return watch(ctx, client, cmdArgs, out)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func create(ctx context.Context, c *pollclient.Client, args []string, out io.Writer) error {
	if len(args) < 3 {
		return errors.New("usage: pollctl create <question> <option> <option> [option...]")
	}
	poll, err := c.CreatePoll(ctx, args[0], args[1:])
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Created poll %s\n", poll.ID)
	render(out, poll, c)
	return nil
}

func show(ctx context.Context, c *pollclient.Client, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.New("usage: pollctl show <poll-id>")
	}
	poll, err := c.GetPoll(ctx, args[0])
	if err != nil {
		return err
	}
	render(out, poll, c)
	return nil
}

func castVote(ctx context.Context, c *pollclient.Client, args []string, out io.Writer) error {
	if len(args) != 2 {
		return errors.New("usage: pollctl vote <poll-id> <option-number>")
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || n < 1 {
		return fmt.Errorf("option number must be 1 or more, got %q", args[1])
	}

	// Options are numbered from 1 on screen and from 0 on the wire
	poll, err := c.Vote(ctx, args[0], n-1)
	if errors.Is(err, pollclient.ErrAlreadyVoted) {
		fmt.Fprintln(out, "You have already voted on this poll.")
		return nil
	}
	if err != nil && poll == nil {
		return err
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err)
	}
	render(out, poll, c)
	return nil
}

func watch(ctx context.Context, c *pollclient.Client, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.New("usage: pollctl watch <poll-id>")
	}
	poll, err := c.GetPoll(ctx, args[0])
	if err != nil {
		return err
	}
	render(out, poll, c)

	return c.Watch(ctx, poll.ID, func(p *models.Poll) {
		fmt.Fprintln(out)
		render(out, p, c)
	})
}

func render(out io.Writer, poll *models.Poll, c *pollclient.Client) {
	voted, chosen := c.LocalVote(poll.ID)
	pct := poll.Percentages()

	fmt.Fprintln(out, poll.Question)
	for i, opt := range poll.Options {
		marker := " "
		if chosen != nil && *chosen == i {
			marker = "*"
		}
		bar := strings.Repeat("#", pct[i]/5)
		fmt.Fprintf(out, "%s %d. %-20s %-20s %3d%% (%d)\n", marker, i+1, opt.Text, bar, pct[i], opt.Votes)
	}
	fmt.Fprintf(out, "Total votes: %d\n", poll.TotalVotes())
	if voted {
		fmt.Fprintln(out, "You have voted on this poll.")
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
