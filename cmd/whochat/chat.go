package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bitfsorg/whochat/chat"
	"github.com/bitfsorg/whochat/client"
)

// chatFlags are the flags shared by get, post and delete.
type chatFlags struct {
	password string
	server   string
}

func (f *chatFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.password, "password", "p", "", "chat password (prompted when omitted)")
	cmd.Flags().StringVarP(&f.server, "server", "s", "", "talk to a whochat server at this URL instead of the local store")
}

// chatRunner runs one operation either against the local store or a
// remote server.
type chatRunner struct {
	local  *chat.Store
	remote *client.Client
	close  func()
}

func (o *rootOptions) openRunner(f *chatFlags) (*chatRunner, error) {
	if f.server != "" {
		return &chatRunner{remote: client.New(f.server), close: func() {}}, nil
	}

	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	logger, logCloser, err := o.openLogger(cfg, true)
	if err != nil {
		return nil, err
	}
	store, backend, err := openStore(cfg, logger, nil)
	if err != nil {
		_ = logCloser.Close()
		return nil, err
	}
	return &chatRunner{
		local: store,
		close: func() {
			_ = backend.Close()
			_ = logCloser.Close()
		},
	}, nil
}

func newGetCmd(root *rootOptions) *cobra.Command {
	f := &chatFlags{}
	cmd := &cobra.Command{
		Use:   "get NAME",
		Short: "Print the text of a chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd, f.password)
			if err != nil {
				return err
			}
			run, err := root.openRunner(f)
			if err != nil {
				return err
			}
			defer run.close()

			stop := startSpinner("Decrypting chat...", root.verbose || root.debug)
			var text string
			if run.remote != nil {
				text, err = run.remote.Get(cmd.Context(), args[0], password)
			} else {
				text, err = run.local.Read(args[0], password)
			}
			stop()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newPostCmd(root *rootOptions) *cobra.Command {
	f := &chatFlags{}
	cmd := &cobra.Command{
		Use:   "post NAME CONTENT",
		Short: "Post to a chat, creating it if needed",
		Long: `Prepends CONTENT to the chat NAME. A chat that does not exist yet is
created with the given password.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd, f.password)
			if err != nil {
				return err
			}
			run, err := root.openRunner(f)
			if err != nil {
				return err
			}
			defer run.close()

			stop := startSpinner("Encrypting chat...", root.verbose || root.debug)
			created, err := run.post(cmd.Context(), args[0], password, args[1])
			stop()
			if err != nil {
				return err
			}
			if created {
				success(cmd.OutOrStdout(), "Created chat %s", color.CyanString(args[0]))
			} else {
				success(cmd.OutOrStdout(), "Posted to chat %s", color.CyanString(args[0]))
			}
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

// post reports whether a chat was created. The server does not say, so
// remote posts always report an append.
func (r *chatRunner) post(ctx context.Context, name, password, content string) (bool, error) {
	if r.remote != nil {
		_, err := r.remote.Post(ctx, name, password, content)
		return false, err
	}
	return r.local.Post(name, password, content)
}

func newDeleteCmd(root *rootOptions) *cobra.Command {
	f := &chatFlags{}
	cmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd, f.password)
			if err != nil {
				return err
			}
			run, err := root.openRunner(f)
			if err != nil {
				return err
			}
			defer run.close()

			stop := startSpinner("Deleting chat...", root.verbose || root.debug)
			if run.remote != nil {
				_, err = run.remote.Delete(cmd.Context(), args[0], password)
			} else {
				err = run.local.Delete(args[0], password)
			}
			stop()
			if err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Deleted chat %s", color.CyanString(args[0]))
			return nil
		},
	}
	f.register(cmd)
	return cmd
}
