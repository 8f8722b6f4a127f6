package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sbmwhylt/wlt-team-space/pkg/client"
)

func (c *console) micrositesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "microsites",
		Aliases: []string{"microsite", "ms"},
		Short:   "Manage microsites",
	}
	cmd.AddCommand(c.micrositesListCmd(), c.micrositesGetCmd(), c.micrositesCreateCmd(), c.micrositesUpdateCmd(), c.micrositesDeleteCmd(), c.micrositesUploadCmd())
	return cmd
}

func (c *console) micrositesListCmd() *cobra.Command {
	var siteType string
	var refresh bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List microsites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			all, err := c.client.Microsites.Get(cmd.Context(), refresh)
			if err != nil {
				return err
			}
			list := all[:0:0]
			for _, m := range all {
				if siteType == "" || strings.EqualFold(m.Type, siteType) {
					list = append(list, m)
				}
			}
			return c.emit(list, func() error { return c.micrositeTable(list) })
		},
	}
	cmd.Flags().StringVar(&siteType, "type", "", "only consumer or business microsites")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the cache")
	return cmd
}

func (c *console) micrositesGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id|slug>",
		Short: "Show one microsite; slugs are looked up without a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				m   client.Microsite
				err error
			)
			if id, perr := parseID(args[0]); perr == nil {
				if err := c.requireLogin(); err != nil {
					return err
				}
				m, err = c.client.Microsites.GetByID(cmd.Context(), id)
			} else {
				m, err = c.client.Microsites.GetBySlug(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			return c.emit(m, func() error { return c.micrositeDetail(m) })
		},
	}
}

// micrositeFlags binds the editable text fields of a microsite.
type micrositeFlags struct {
	name, slug, siteType, link, banner, logo, about, footer string
	digitalCard, physicalCard, community, mapLink           string
	facebook, twitter, linkedin, instagram, youtube          string
}

func (mf *micrositeFlags) bind(f *pflag.FlagSet) {
	f.StringVar(&mf.name, "name", "", "display name")
	f.StringVar(&mf.slug, "slug", "", "URL slug (derived from the name when empty)")
	f.StringVar(&mf.siteType, "type", "", "consumer or business")
	f.StringVar(&mf.link, "link", "", "canonical site URL")
	f.StringVar(&mf.banner, "banner", "", "banner image URL")
	f.StringVar(&mf.logo, "logo", "", "logo image URL")
	f.StringVar(&mf.about, "about", "", "about section text")
	f.StringVar(&mf.footer, "footer", "", "footer text")
	f.StringVar(&mf.digitalCard, "digital-card-link", "", "digital card order URL")
	f.StringVar(&mf.physicalCard, "physical-card-link", "", "physical card order URL")
	f.StringVar(&mf.community, "community-link", "", "community URL")
	f.StringVar(&mf.mapLink, "map-link", "", "map URL")
	f.StringVar(&mf.facebook, "facebook", "", "Facebook URL")
	f.StringVar(&mf.twitter, "twitter", "", "Twitter URL")
	f.StringVar(&mf.linkedin, "linkedin", "", "LinkedIn URL")
	f.StringVar(&mf.instagram, "instagram", "", "Instagram URL")
	f.StringVar(&mf.youtube, "youtube", "", "YouTube URL")
}

func (mf *micrositeFlags) microsite() client.Microsite {
	return client.Microsite{
		Name:                  mf.name,
		Slug:                  mf.slug,
		Type:                  mf.siteType,
		Link:                  mf.link,
		Banner:                mf.banner,
		Logo:                  mf.logo,
		AboutDesc:             mf.about,
		FooterDesc:            mf.footer,
		DigitalCardOrderLink:  mf.digitalCard,
		PhysicalCardOrderLink: mf.physicalCard,
		CommunityLink:         mf.community,
		MapLink:               mf.mapLink,
		SocialLinks:           mf.socialLinks(),
	}
}

func (mf *micrositeFlags) socialLinks() client.SocialLinks {
	return client.SocialLinks{
		Facebook:  mf.facebook,
		Twitter:   mf.twitter,
		LinkedIn:  mf.linkedin,
		Instagram: mf.instagram,
		YouTube:   mf.youtube,
	}
}

// patch includes only the flags set on the command line. Social links are
// sent as a whole when any of them is set.
func (mf *micrositeFlags) patch(f *pflag.FlagSet) client.MicrositePatch {
	var p client.MicrositePatch
	set := func(flag string, dst **string, v string) {
		if f.Changed(flag) {
			*dst = client.StringPtr(v)
		}
	}
	set("name", &p.Name, mf.name)
	set("slug", &p.Slug, mf.slug)
	set("type", &p.Type, mf.siteType)
	set("link", &p.Link, mf.link)
	set("banner", &p.Banner, mf.banner)
	set("logo", &p.Logo, mf.logo)
	set("about", &p.AboutDesc, mf.about)
	set("footer", &p.FooterDesc, mf.footer)
	set("digital-card-link", &p.DigitalCardOrderLink, mf.digitalCard)
	set("physical-card-link", &p.PhysicalCardOrderLink, mf.physicalCard)
	set("community-link", &p.CommunityLink, mf.community)
	set("map-link", &p.MapLink, mf.mapLink)
	for _, name := range []string{"facebook", "twitter", "linkedin", "instagram", "youtube"} {
		if f.Changed(name) {
			links := mf.socialLinks()
			p.SocialLinks = &links
			break
		}
	}
	return p
}

func (c *console) micrositesCreateCmd() *cobra.Command {
	var mf micrositeFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a microsite",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			m, err := c.client.Microsites.Create(cmd.Context(), mf.microsite())
			if err != nil {
				return err
			}
			c.out.Success(fmt.Sprintf("Microsite %s created with id %d", m.Slug, m.ID))
			return nil
		},
	}
	mf.bind(cmd.Flags())
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("link")
	return cmd
}

func (c *console) micrositesUpdateCmd() *cobra.Command {
	var mf micrositeFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a microsite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			patch := mf.patch(cmd.Flags())
			if patch == (client.MicrositePatch{}) {
				return fmt.Errorf("nothing to update")
			}
			m, err := c.client.Microsites.Update(cmd.Context(), id, patch)
			if err != nil {
				return err
			}
			c.out.Success(fmt.Sprintf("Microsite %s updated", m.Slug))
			return nil
		},
	}
	mf.bind(cmd.Flags())
	return cmd
}

func (c *console) micrositesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a microsite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := c.client.Microsites.Remove(cmd.Context(), id); err != nil {
				return err
			}
			c.out.Success(fmt.Sprintf("Microsite %d deleted", id))
			return nil
		},
	}
}

func (c *console) micrositesUploadCmd() *cobra.Command {
	var field string
	cmd := &cobra.Command{
		Use:   "upload <id> <file>...",
		Short: "Upload banner, logo or marketing media",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			files := make([]client.UploadFile, 0, len(args)-1)
			for _, path := range args[1:] {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()
				files = append(files, client.UploadFile{
					Name:        filepath.Base(path),
					ContentType: contentType(path),
					Body:        f,
				})
			}

			spin := c.errOut.NewSpinner(fmt.Sprintf("uploading %d file(s)", len(files)))
			spin.Start()
			_, urls, err := c.client.Microsites.UploadMedia(cmd.Context(), id, field, files...)
			spin.Stop()
			if err != nil {
				return err
			}
			return c.emit(urls, func() error {
				c.out.Success(fmt.Sprintf("Uploaded %d file(s) to %s", len(urls), field))
				for _, u := range urls {
					fmt.Fprintln(c.out.Writer(), "  "+u)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&field, "field", "", "banner, logo, marketingImgs or marketingVids")
	_ = cmd.MarkFlagRequired("field")
	return cmd
}

func contentType(path string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func (c *console) micrositeTable(list []client.Microsite) error {
	rows := make([][]string, 0, len(list))
	for _, m := range list {
		rows = append(rows, []string{fmt.Sprint(m.ID), m.Slug, m.Name, m.Type, m.Link})
	}
	return c.out.Table([]string{"ID", "SLUG", "NAME", "TYPE", "LINK"}, rows)
}

func (c *console) micrositeDetail(m client.Microsite) error {
	return c.out.KeyValues([][2]string{
		{"ID", fmt.Sprint(m.ID)},
		{"Name", m.Name},
		{"Slug", m.Slug},
		{"Type", m.Type},
		{"Link", m.Link},
		{"Banner", orDash(m.Banner)},
		{"Logo", orDash(m.Logo)},
		{"About", orDash(m.AboutDesc)},
		{"Marketing images", fmt.Sprint(len(m.MarketingImgs))},
		{"Marketing videos", fmt.Sprint(len(m.MarketingVids))},
	})
}
