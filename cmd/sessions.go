package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/foundry/internal/storage"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List staging sessions and their dirty state",
	Long: "Each session is a staging file under <data-dir>/.staging/[<instance>] holding the\n" +
		"working copy of one document. Sessions with staged edits are marked modified.",
	Args: cobra.NoArgs,
	RunE: runSessionsList,
}

var sessionsNewCmd = &cobra.Command{
	Use:   "new [document]",
	Short: "Open a new session, optionally staging a document",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSessionsNew,
}

var sessionsSaveCmd = &cobra.Command{
	Use:   "save <session> [document]",
	Short: "Write a session's staged tree to its document or a new one",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runSessionsSave,
}

var sessionsDiscardCmd = &cobra.Command{
	Use:   "discard <session>",
	Short: "Remove a session and its staged edits",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsDiscard,
}

func init() {
	sessionsCmd.AddCommand(sessionsNewCmd)
	sessionsCmd.AddCommand(sessionsSaveCmd)
	sessionsCmd.AddCommand(sessionsDiscardCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func openSessions(cmd *cobra.Command) (*workspace, *storage.Manager, error) {
	w, err := openWorkspace(cmd)
	if err != nil {
		return nil, nil, err
	}
	w.rescan()
	m := w.manager()
	if _, err := m.Open(); err != nil {
		w.logger.Warn("some sessions did not load cleanly", "err", err)
	}
	return w, m, nil
}

func runSessionsList(cmd *cobra.Command, _ []string) error {
	w, m, err := openSessions(cmd)
	if err != nil {
		return err
	}
	w.printer.Sessions(m.Sinks())
	return nil
}

func runSessionsNew(cmd *cobra.Command, args []string) error {
	w, m, err := openSessions(cmd)
	if err != nil {
		return err
	}
	s, err := m.AddSink()
	if err != nil {
		return err
	}
	if len(args) == 1 {
		res, err := s.Load(args[0])
		if err != nil {
			w.printer.Error(err.Error())
			return err
		}
		if res.Modules != nil {
			w.printer.Check(s.Name(), res.Modules)
		}
	}
	if err := s.Commit(); err != nil {
		return err
	}
	w.printer.Info(fmt.Sprintf("opened session %s for %s", sessionID(s), s.Name()))
	return nil
}

func runSessionsSave(cmd *cobra.Command, args []string) error {
	w, m, err := openSessions(cmd)
	if err != nil {
		return err
	}
	s, err := findSession(m.Sinks(), args[0])
	if err != nil {
		return err
	}
	path := ""
	if len(args) == 2 {
		path = args[1]
	}
	if err := s.Save(path); err != nil {
		w.printer.Error(err.Error())
		return err
	}
	if err := s.Commit(); err != nil {
		return err
	}
	target, _ := s.Target()
	w.printer.Info(fmt.Sprintf("saved session %s to %s", sessionID(s), target.FullPath()))
	return nil
}

func runSessionsDiscard(cmd *cobra.Command, args []string) error {
	w, m, err := openSessions(cmd)
	if err != nil {
		return err
	}
	s, err := findSession(m.Sinks(), args[0])
	if err != nil {
		return err
	}
	if err := m.Discard(s); err != nil {
		return err
	}
	w.printer.Info(fmt.Sprintf("discarded session %s", args[0]))
	return nil
}

func sessionID(s *storage.Sink) string {
	return strings.TrimSuffix(filepath.Base(s.StagingPath()), storage.DocumentExt)
}
