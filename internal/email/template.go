package email

import "fmt"

// otpSubject はOTPメールの件名。
const otpSubject = "Your Saathi OTP Code"

// OTPEmail はOTPコード通知メールの件名とHTML本文を生成する。
// 文面は10分の有効期限を案内する。
func OTPEmail(code string) (subject, htmlBody string) {
	htmlBody = fmt.Sprintf(`
    <div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
        <h2 style="color: #4A8B71;">Welcome to Saathi</h2>
        <p>Your OTP code is:</p>
        <h1 style="color: #4A8B71; font-size: 32px; letter-spacing: 4px;">%s</h1>
        <p>This code will expire in 10 minutes.</p>
        <p style="color: #8C9E96;">If you didn't request this, please ignore this email.</p>
    </div>
    `, code)
	return otpSubject, htmlBody
}
