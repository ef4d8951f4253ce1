package telegram

const ackText = "☀️ Got it, good morning! Everyone has been told you are up."
