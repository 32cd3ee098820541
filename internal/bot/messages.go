package bot

import (
	"fmt"
	"html"
	"strings"
	"time"

	"contest-bot/internal/domain/broadcast"
	"contest-bot/internal/domain/channel"
	"contest-bot/internal/domain/contest"
	"contest-bot/internal/domain/user"
	"contest-bot/internal/service/stats"
	usersvc "contest-bot/internal/service/user"
)

// Main menu labels double as the texts the reply keyboard sends back.
const (
	MenuContest = "🎲 Join the contest"
	MenuPrizes  = "🎁 Prizes"
	MenuPoints  = "💰 My points"
	MenuRating  = "🏆 Rating"
	MenuTerms   = "📋 Terms"
	MenuContact = "📞 Contact"

	ButtonSharePhone = "📱 Share phone number"
)

const (
	msgWelcome = `🎯 <b>Welcome to the contest bot!</b>

To take part:

1️⃣ Confirm your phone number
2️⃣ Subscribe to the channels
3️⃣ Invite friends and collect points!`

	msgWelcomeBack = `🎯 <b>Good to see you!</b>

Choose an item from the menu:`

	msgSendPhone = `📱 <b>Confirm your phone number</b>

Press "` + ButtonSharePhone + `" to continue.`

	msgInvalidPhone   = `❌ Please send your own phone number with the "` + ButtonSharePhone + `" button.`
	msgPhoneReceived  = "✅ <b>Phone number confirmed!</b>\n\nNow subscribe to the channels."
	msgSubscribe      = "📢 <b>Subscribe to the channels</b>\n\nTo take part you must be subscribed to:"
	msgNotSubscribed  = "❌ <b>You are not subscribed to all channels yet!</b>\n\nPlease subscribe to:"
	msgLeftChannels   = "❌ <b>You left some of the channels!</b>\n\nSubscribe again to continue:"
	msgAllSubscribed  = "✅ <b>Congratulations!</b>\n\nYou are subscribed to every channel and joined the contest! 🎉\n\nNow invite friends to collect points."
	msgNoChannels     = "⚠️ There are no channels to subscribe to right now."
	msgNoContest      = "ℹ️ There is no active contest right now.\n\nWe will let you know as soon as a new one starts! 🔔"
	msgBanned         = "❌ You are banned and cannot take part in the contest."
	msgNotRegistered  = "ℹ️ Please send /start to register first."
	msgError          = "❌ Something went wrong. Please try again."
	msgCheckLater     = "⏳ Could not check your subscriptions right now. Please try again in a minute."
	msgNotAdmin       = "❌ You do not have admin rights."
	msgAdminWelcome   = "👮 <b>Admin panel</b>\n\nChoose an action:"
	msgCancelled      = "❌ Cancelled."
	msgNothingToSend  = "⚠️ Send the broadcast content first."
	msgBroadcastBusy  = "⚠️ A broadcast is already running."
	msgBroadcastEmpty = "⚠️ There are no recipients."
)

const (
	msgChannelAdd = `📢 <b>Add a channel</b>

<b>Send one of:</b>
• Username: @channel_username
• Channel ID: -1001234567890
• Link: https://t.me/channel_username

<i>The bot must be an admin of the channel!</i>`

	msgChannelNotFound  = "❌ Channel not found. Make sure the bot is an admin of the channel."
	msgChannelExists    = "⚠️ This channel has already been added."
	msgChannelInvite    = "❌ Private invite links cannot be checked. Send the channel ID (-100…) instead."
	msgChannelInvalid   = "❌ That does not look like a channel. Send @username, -100… ID or a t.me link."
	msgContestTitle     = "🎲 Enter the contest title:"
	msgContestDesc      = "📝 Enter the contest description:"
	msgContestPrizes    = "🎁 Enter the list of prizes:"
	msgContestImage     = "🖼 Send the contest image, or /skip to go without one:"
	msgContestDate      = "📅 Enter the end date (format: YYYY-MM-DD HH:MM):"
	msgContestBadDate   = "❌ Invalid date format. Please use YYYY-MM-DD HH:MM."
	msgContestPastDate  = "❌ The end date must be in the future."
	msgContestCreated   = "✅ Contest created!"
	msgContestStopped   = "✅ Contest stopped."
	msgContestMissing   = "❌ There is no active contest to edit."
	msgContestUpdated   = "✅ Contest updated."
	msgEditTitle        = "📝 Enter the new contest title:"
	msgEditDesc         = "📝 Enter the new description:"
	msgEditPrizes       = "🎁 Enter the new list of prizes:"
	msgEditImage        = "🖼 Send the new contest image:"
	msgEditDate         = "📅 Enter the new end date (YYYY-MM-DD HH:MM):"
	msgSendImage        = "❌ Please send a photo."
	msgEditTerms        = "📋 Send the new terms text (HTML is supported):"
	msgEditContact      = "📞 <b>Send the contact text</b>\n\nHTML is supported, for example:\n\n<code>Questions:\n👤 Admin: @username\n📢 Channel: @channel</code>"
	msgTermsSaved       = "✅ Terms updated."
	msgContactSaved     = "✅ Contact text updated."
	msgBroadcastCompose = "💬 <b>New broadcast</b>\n\nSend a text, a photo or a video with a caption.\n\n<b>Formatting:</b>\n• &lt;b&gt;Bold&lt;/b&gt;\n• &lt;i&gt;Italic&lt;/i&gt;\n• &lt;code&gt;Code&lt;/code&gt;\n• &lt;a href=\"url\"&gt;Link&lt;/a&gt;"
	msgButtonName       = "🔘 Enter the button text:"
	msgButtonURL        = "🔗 Enter the button URL (https://…):"
	msgButtonBadURL     = "❌ Invalid URL. It must start with http://, https:// or tg://"
	msgBroadcastStarted = "🚀 Sending messages…"
	msgUserMissing      = "❌ User not found."
)

func textBroadcastDone(sent, failed int) string {
	return fmt.Sprintf("✅ <b>Broadcast finished!</b>\n\n✅ Sent: <b>%d</b>\n❌ Failed: <b>%d</b>", sent, failed)
}

func textTooLong(max int) string {
	return fmt.Sprintf("❌ Please send a text of up to %d characters.", max)
}

func textBonus(amount int64) string {
	return fmt.Sprintf("✅ <b>You are subscribed to every channel!</b>\n\n🎁 You received <b>+%d</b> points!", amount)
}

func textReferralCredited(amount int64) string {
	return fmt.Sprintf("🎉 A friend joined with your link! <b>+%d</b> points.", amount)
}

// textChannelList numbers channels under header.
func textChannelList(header string, chs []channel.Channel) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	for i, ch := range chs {
		fmt.Fprintf(&b, "%d. %s\n", i+1, html.EscapeString(ch.Title))
	}
	return strings.TrimRight(b.String(), "\n")
}

func medal(i int) string {
	switch i {
	case 0:
		return "🥇"
	case 1:
		return "🥈"
	case 2:
		return "🥉"
	}
	return fmt.Sprintf("%d.", i+1)
}

func displayName(u *user.User) string {
	return html.EscapeString(u.DisplayName())
}

// remaining formats the time left until end, e.g. "3d 4h 12m".
func remaining(end, now time.Time) string {
	d := end.Sub(now)
	if d <= 0 {
		return "finished"
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

func formatDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(contest.DateLayout)
}

func textContest(c *contest.Contest, participants int, link string, perReferral int64, loc *time.Location, now time.Time) string {
	return fmt.Sprintf("🎯 <b>%s</b>\n\n📖 <b>Description:</b>\n%s\n\n🎁 <b>Prizes:</b>\n%s\n\n📅 <b>Ends:</b> %s\n⏱️ <b>Time left:</b> %s\n\n👥 <b>Participants:</b> %d\n\n🔗 <b>Your referral link:</b>\n<code>%s</code>\n\n💡 Every invite = <b>+%d</b> points! 🎉",
		c.Title, c.Description, c.Prizes, formatDate(c.EndDate, loc), remaining(c.EndDate, now), participants, link, perReferral)
}

func textPrizes(c *contest.Contest) string {
	return fmt.Sprintf("🎁 <b>CONTEST PRIZES</b>\n\n%s\n\n🏆 <b>Winners</b> are announced when the contest ends.", c.Prizes)
}

func textPoints(p *usersvc.Profile, link string, perReferral int64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "💰 <b>Your points</b>\n\n💎 Total: <b>%d</b> points\n👥 Invited friends: <b>%d</b>\n\n💡 Every friend = +%d points",
		p.User.Points, p.Referrals, perReferral)
	if len(p.History) > 0 {
		b.WriteString("\n\n📊 <b>Recent activity:</b>")
		for _, h := range p.History {
			label := h.Note
			if label == "" {
				label = string(h.Reason)
			}
			fmt.Fprintf(&b, "\n• %+d points - %s", h.Amount, html.EscapeString(label))
		}
	}
	fmt.Fprintf(&b, "\n\n🔗 <b>Referral link:</b>\n<code>%s</code>", link)
	return b.String()
}

func textRating(top []user.User, me *user.User, rank int) string {
	var b strings.Builder
	b.WriteString("🏆 <b>RATING (TOP 10)</b>\n")
	if len(top) == 0 {
		b.WriteString("\nNo participants yet.")
	}
	for i := range top {
		fmt.Fprintf(&b, "\n%s %s — <b>%d</b> points", medal(i), displayName(&top[i]), top[i].Points)
	}
	if me != nil {
		fmt.Fprintf(&b, "\n\n┄┄┄┄┄┄┄┄┄┄┄┄┄┄┄\n📍 Your place: <b>#%d</b>\n💎 Your points: <b>%d</b>", rank, me.Points)
	}
	return b.String()
}

func textStats(s *stats.Stats) string {
	active := "No"
	if s.ActiveContest {
		active = "Yes"
	}
	return fmt.Sprintf("📊 <b>Statistics</b>\n\n👥 Participants: <b>%d</b>\n💎 Total points: <b>%d</b>\n📢 Channels: <b>%d</b>\n🎲 Active contest: <b>%s</b>",
		s.Participants, s.TotalPoints, s.Channels, active)
}

func textUsersPage(p *usersvc.Page) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👥 <b>Users</b> (%d)\n📄 Page: %d/%d\n\n", p.Total, p.Page+1, p.Pages)
	if len(p.Users) == 0 {
		b.WriteString("No users yet.")
	}
	for i := range p.Users {
		u := &p.Users[i]
		status := "✅"
		if u.IsBanned {
			status = "🚫"
		}
		fmt.Fprintf(&b, "%d. %s %s — <b>%d</b> points\n", p.Page*usersvc.PageSize+i+1, status, displayName(u), u.Points)
	}
	return b.String()
}

func textUserDetails(u *user.User, rank, referrals int) string {
	var b strings.Builder
	b.WriteString("👤 <b>User details</b>\n\n")
	fmt.Fprintf(&b, "📛 Name: <b>%s</b>", html.EscapeString(u.FirstName))
	if u.LastName != "" {
		b.WriteString(" " + html.EscapeString(u.LastName))
	}
	b.WriteString("\n")
	if u.Username != "" {
		fmt.Fprintf(&b, "👤 Username: @%s\n", html.EscapeString(u.Username))
	}
	fmt.Fprintf(&b, "📱 Phone: <code>%s</code>\n", html.EscapeString(u.Phone))
	fmt.Fprintf(&b, "💰 Points: <b>%d</b>\n", u.Points)
	fmt.Fprintf(&b, "🏆 Place: <b>#%d</b>\n", rank)
	fmt.Fprintf(&b, "👥 Invited: <b>%d</b>\n", referrals)
	fmt.Fprintf(&b, "📅 Joined: %s\n", u.CreatedAt.Format("2006-01-02"))
	fmt.Fprintf(&b, "\n🔗 Referral code: <code>%s</code>\n", u.ReferralCode)
	if u.IsBanned {
		b.WriteString("\n🚫 <b>BANNED</b>")
		if u.BanReason != "" {
			b.WriteString(": " + html.EscapeString(u.BanReason))
		}
	}
	return b.String()
}

func textAdminChannels(chs []channel.Channel) string {
	var b strings.Builder
	b.WriteString("📢 <b>Channels</b>\n\n")
	if len(chs) == 0 {
		b.WriteString("No channels yet.")
	}
	for i, ch := range chs {
		status := "✅"
		if !ch.IsActive {
			status = "❌"
		}
		kind := "🌐"
		if ch.IsPrivate {
			kind = "🔒"
		}
		fmt.Fprintf(&b, "%d. %s %s %s\n", i+1, status, kind, html.EscapeString(ch.Title))
	}
	return b.String()
}

func textAdminContest(active *contest.Contest, loc *time.Location, now time.Time) string {
	if active == nil {
		return "🎲 <b>Contest management</b>\n\nThere is no active contest."
	}
	return fmt.Sprintf("🎲 <b>Contest management</b>\n\n📝 <b>Active contest:</b> %s\n📅 Ends: %s\n⏱️ Time left: %s",
		active.Title, formatDate(active.EndDate, loc), remaining(active.EndDate, now))
}

func textContestEdit(c *contest.Contest, loc *time.Location) string {
	image := "❌"
	if c.ImageFileID != "" {
		image = "✅"
	}
	return fmt.Sprintf("📝 <b>Edit contest</b>\n\n📌 Title: %s\n📖 Description: %s\n🎁 Prizes: %s\n🖼 Image: %s\n📅 Ends: %s",
		c.Title, html.EscapeString(preview(c.Description, 100)), html.EscapeString(preview(c.Prizes, 100)), image, formatDate(c.EndDate, loc))
}

func textResults(top []user.User) string {
	var b strings.Builder
	b.WriteString("🏆 <b>CONTEST RESULTS</b>\n\n")
	if len(top) == 0 {
		b.WriteString("No participants.")
	}
	for i := range top {
		fmt.Fprintf(&b, "%s %s — <b>%d</b> points\n", medal(i), displayName(&top[i]), top[i].Points)
	}
	return b.String()
}

func textSettingAdmin(title, current string) string {
	return fmt.Sprintf("%s\n\n<b>Current text:</b>\n\n%s", title, html.EscapeString(preview(current, 500)))
}

func textBroadcastPreview(d broadcast.Message, recipients int) string {
	var b strings.Builder
	b.WriteString("👁 <b>Broadcast preview</b>\n\n")
	fmt.Fprintf(&b, "👥 Recipients: <b>%d</b>\n", recipients)
	kind := d.Kind
	if kind == "" {
		kind = broadcast.KindText
	}
	fmt.Fprintf(&b, "📝 Type: <b>%s</b>\n", kind)
	if len(d.Buttons) > 0 {
		fmt.Fprintf(&b, "🔘 Buttons: <b>%d</b>\n", len(d.Buttons))
		for i, btn := range d.Buttons {
			fmt.Fprintf(&b, "   %d. %s → %s\n", i+1, html.EscapeString(btn.Text), html.EscapeString(btn.URL))
		}
	}
	fmt.Fprintf(&b, "\n<b>Message:</b>\n%s", html.EscapeString(preview(d.Text, 200)))
	return b.String()
}

// preview cuts s to n runes, marking the cut.
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
