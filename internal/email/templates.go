package email

import (
	"fmt"
	"strings"
)

// RequestItem represents one line of an order request for email purposes
type RequestItem struct {
	DeviceID  string
	Model     string
	Quantity  int
	UnitPrice int
}

// BuildRequestConfirmationBody builds the HTML body for the order request
// confirmation email
func BuildRequestConfirmationBody(requestID string, total int, items []RequestItem) string {
	var itemsHTML strings.Builder
	for _, item := range items {
		model := item.Model
		if model == "" {
			model = item.DeviceID
		}
		itemsHTML.WriteString(fmt.Sprintf(
			`<tr>
				<td style="padding: 12px; border-bottom: 1px solid #eee;">%s</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: center;">%d</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">%s</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">%s</td>
			</tr>`,
			model,
			item.Quantity,
			formatMoney(item.UnitPrice),
			formatMoney(item.UnitPrice*item.Quantity),
		))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: #1a2b4a; padding: 30px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 24px;">Order request received</h1>
	</div>

	<div style="background: #fff; padding: 30px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">
		<p style="margin-top: 0;">Thank you for your order request. Our team will review it and confirm availability shortly.</p>

		<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
			<p style="margin: 0; font-size: 14px; color: #666;">Reference</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold; font-family: monospace;">%s</p>
		</div>

		<h2 style="font-size: 18px; border-bottom: 2px solid #1a2b4a; padding-bottom: 10px;">Requested items</h2>

		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background: #f8f9fa;">
					<th style="padding: 12px; text-align: left; font-weight: 600;">Model</th>
					<th style="padding: 12px; text-align: center; font-weight: 600;">Qty</th>
					<th style="padding: 12px; text-align: right; font-weight: 600;">Unit price</th>
					<th style="padding: 12px; text-align: right; font-weight: 600;">Subtotal</th>
				</tr>
			</thead>
			<tbody>
				%s
			</tbody>
		</table>

		<div style="text-align: right; padding: 20px; background: #f8f9fa; border-radius: 5px;">
			<span style="font-size: 14px; color: #666;">Total</span>
			<span style="font-size: 24px; font-weight: bold; color: #1a2b4a; margin-left: 10px;">%s</span>
		</div>

		<hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">

		<p style="font-size: 12px; color: #999; margin-bottom: 0;">
			This is an automated message. If you have any questions, please contact your account manager.
		</p>
	</div>
</body>
</html>`, requestID, itemsHTML.String(), formatMoney(total))
}

// BuildAccountApprovedBody builds the HTML body for the approval notice
func BuildAccountApprovedBody(company string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: #1a2b4a; padding: 30px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 24px;">Account approved</h1>
	</div>
	<div style="background: #fff; padding: 30px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">
		<p style="margin-top: 0;">The account for <strong>%s</strong> has been approved. You can now sign in and browse the catalog.</p>
		<p style="font-size: 12px; color: #999; margin-bottom: 0;">This is an automated message.</p>
	</div>
</body>
</html>`, company)
}

// BuildPasswordResetBody builds the HTML body for the reset code email
func BuildPasswordResetBody(code string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: #1a2b4a; padding: 30px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 24px;">Password reset</h1>
	</div>
	<div style="background: #fff; padding: 30px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">
		<p style="margin-top: 0;">Use this code to reset your password. It expires in 15 minutes.</p>
		<div style="background: #f8f9fa; padding: 20px; border-radius: 5px; margin: 20px 0; text-align: center;">
			<span style="font-size: 32px; font-weight: bold; letter-spacing: 8px; font-family: monospace;">%s</span>
		</div>
		<p style="font-size: 12px; color: #999; margin-bottom: 0;">If you did not request a reset, you can ignore this message.</p>
	</div>
</body>
</html>`, code)
}

// formatMoney renders a minor-unit amount as dollars with comma grouping
func formatMoney(cents int) string {
	return fmt.Sprintf("$%s.%02d", groupThousands(cents/100), cents%100)
}

func groupThousands(n int) string {
	str := fmt.Sprintf("%d", n)
	if len(str) <= 3 {
		return str
	}

	var result strings.Builder
	remainder := len(str) % 3
	if remainder > 0 {
		result.WriteString(str[:remainder])
		result.WriteString(",")
	}

	for i := remainder; i < len(str); i += 3 {
		result.WriteString(str[i : i+3])
		if i+3 < len(str) {
			result.WriteString(",")
		}
	}

	return result.String()
}
