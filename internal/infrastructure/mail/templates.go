package mail

import (
	htmltpl "html/template"
	texttpl "text/template"
)

type resetMailData struct {
	Username   string
	ResetToken string
	Year       int
}

var resetHTML = htmltpl.Must(htmltpl.New("reset.html").Parse(`
<h2>{{.Username}},</h2>
<br/><h3>You requested a password reset.</h3><br/>
<p>Please copy this reset code back inside the app:
  <br/><br/>{{.ResetToken}}
</p><br/>
<p>If the reset code matches, your account will be secured with your new password.</p><br/>
<h4>Thank you for using our services and making your account more secure.</h4>
<p>The Good Fork &copy; - {{.Year}}</p>
`))

var resetText = texttpl.Must(texttpl.New("reset.txt").Parse(`{{.Username}},

You requested a password reset.

Please copy this reset code back inside the app:

{{.ResetToken}}

If the reset code matches, your account will be secured with your new password.

The Good Fork - {{.Year}}
`))
