package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	domain "github.com/oshokin/still-alive/internal/domain/liveness"
	"github.com/oshokin/still-alive/internal/service/client"
)

// newContactsCmd builds the `contacts` command group.
func newContactsCmd() *cobra.Command {
	contactsCmd := &cobra.Command{
		Use:   "contacts",
		Short: "Manage emergency contacts.",
	}

	contactsCmd.AddCommand(newContactsListCmd(), newContactsAddCmd(), newContactsRemoveCmd())

	return contactsCmd
}

func newContactsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List emergency contacts with their positions.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return client.ListContacts(cmd.Context(), options(), cmd.OutOrStdout())
		},
	}
}

func newContactsAddCmd() *cobra.Command {
	var (
		contact  domain.Contact
		channels []string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an emergency contact.",
		Long: fmt.Sprintf(`Adds an emergency contact. At most %d contacts can be registered and
a contact with the same phone number or email as an existing one is rejected.

Without --channels every free channel the contact can be reached on is enabled,
or SMS when only a phone number is given. SMS and WhatsApp are premium channels.`, domain.MaxContacts),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("channels") {
				contact.Channels = domain.NewChannelSet()

				for _, name := range channels {
					ch, err := domain.ParseChannel(name)
					if err != nil {
						return err
					}

					contact.Channels[ch] = struct{}{}
				}
			} else {
				contact.Channels = domain.DefaultChannels(&contact)
			}

			return client.AddContact(cmd.Context(), options(), &contact, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&contact.Name, "name", "", "contact name")
	cmd.Flags().StringVar(&contact.Phone, "phone", "", "phone number for sms and whatsapp")
	cmd.Flags().StringVar(&contact.Email, "email", "", "email address")
	cmd.Flags().StringVar(&contact.ChatHandle, "chat", "", "chat app handle")
	cmd.Flags().StringSliceVar(&channels, "channels", nil, "channels to use: email, sms, whatsapp, chat")

	if err := cmd.MarkFlagRequired("name"); err != nil {
		panic(err)
	}

	return cmd
}

func newContactsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <position>...",
		Short: "Remove contacts by the positions shown by `contacts list`.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			positions := make([]int, 0, len(args))

			for _, arg := range args {
				p, err := strconv.Atoi(arg)
				if err != nil || p < 0 {
					return fmt.Errorf("invalid position %q", arg)
				}

				positions = append(positions, p)
			}

			return client.RemoveContacts(cmd.Context(), options(), positions, cmd.OutOrStdout())
		},
	}
}
