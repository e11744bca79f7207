package crypto

// LockSessionKeys mlocks each derived key buffer of keys so the raw
// key material is never paged to swap while the session is live.
func LockSessionKeys(keys *SessionKeys) {
	mlock(keys.SendKey[:])
	mlock(keys.RecvKey[:])
	mlock(keys.SendSeqObfKey[:])
	mlock(keys.RecvSeqObfKey[:])
}

// UnlockSessionKeys reverses LockSessionKeys. Call before or after
// ZeroizeSessionKeys at session close.
func UnlockSessionKeys(keys *SessionKeys) {
	munlock(keys.SendKey[:])
	munlock(keys.RecvKey[:])
	munlock(keys.SendSeqObfKey[:])
	munlock(keys.RecvSeqObfKey[:])
}
