package commentary

const (
	neutralFallback   = "Still playing, huh?"
	trashTalkFallback = "Wow, you're still playing? Impressive dedication to failure!"
)

// DefaultCatalog returns the built-in neutral and trash-talk messages.
func DefaultCatalog() *Catalog {
	c := NewCatalog()
	for kind, entry := range neutralEntries() {
		c.Set(kind, StyleNeutral, entry)
	}
	for kind, entry := range trashTalkEntries() {
		c.Set(kind, StyleTrashTalk, entry)
	}
	return c
}

func neutralEntries() map[EventKind]Entry {
	return map[EventKind]Entry{
		AlienDestroyedNormal: Composed(
			[]string{
				"Alien down!",
				"Direct hit!",
				"Target destroyed!",
				"Splat!",
				"Another one bites the dust!",
			},
			[]string{
				"Nice shooting.",
				"Keep it up!",
				"The fleet is thinning.",
				"Score: {score}.",
				"Good aim, pilot.",
			},
		),
		AlienDestroyedTough: Composed(
			[]string{
				"Armored invader destroyed!",
				"The tough one finally cracked!",
				"Heavy alien neutralized!",
			},
			[]string{
				"Impressive firepower.",
				"That took some doing.",
				"Score climbs to {score}.",
				"The invaders felt that one.",
			},
		),
		PowerUpAppear: OneOf(
			"A {powerUpType} power-up has appeared!",
			"Power-up incoming! Grab it!",
		),
		PowerUpCollectRapidFire: Literal("Rapid fire engaged!"),
		PowerUpCollectShield:    Literal("Shield activated!"),
		PowerUpDestroyed:        Literal("Oops, you shot the power-up!"),
		LoseLife:                Literal("Ship hit! {lives} lives remaining."),
		LevelUp:                 Literal("Level {level}! The invaders are getting faster."),
		GainLife:                Literal("Extra life! You now have {lives} lives."),
		GameStart:               Literal("Game start! Defend the Earth!"),
		GameRestart:             Literal("Back in action! Good luck, pilot."),
		GameOver:                Literal("Game over! Final score: {score}."),
		GamePaused:              Literal("Game paused."),
		GameResumed:             Literal("And we're back!"),
	}
}

func trashTalkEntries() map[EventKind]Entry {
	return map[EventKind]Entry{
		GameStart: OneOf(
			"Oh look, another human thinks they can beat us. How cute!",
			"Ready to lose, Earthling?",
			"Prepare for humiliation, puny human!",
		),
		GameOver: OneOf(
			"Game over already? I was just warming up!",
			"Back to your mom's basement, loser!",
			"Did you even try? Pathetic!",
		),
		GameRestart: OneOf(
			"Back for more punishment? I admire your masochism!",
			"Round 2 of your embarrassment begins now!",
			"Let's see how quickly you fail this time!",
		),
		LoseLife: OneOf(
			"Oops! Did that hurt? Too bad!",
			"One step closer to total failure!",
			"Your ship looks better with some holes in it!",
		),
		PowerUpAppear: OneOf(
			"A power-up! Too bad you're too slow to get it!",
			"Oh look, false hope has appeared!",
			"Here's something you'll never reach!",
		),
		PowerUpCollectRapidFire: OneOf(
			"Rapid fire? More like rapid failure!",
			"Great, now you can miss us faster!",
			"Ooh, scary! ...Not.",
		),
		PowerUpCollectShield: OneOf(
			"Hide behind that shield, coward!",
			"A shield won't save you from inevitable doom!",
			"Prolonging the inevitable, are we?",
		),
		AlienDestroyedNormal: OneOf(
			"You got lucky, punk!",
			"One down, still no chance of winning!",
			"Enjoy that small victory. It's all you'll get!",
			"Wow, you actually hit something. Impressive... for a human.",
			"Don't celebrate yet, there's plenty more where that came from!",
			"Oh no, you destroyed our weakest alien. Whatever shall we do?",
			"Great job! You're still losing, but great job!",
			"One less alien? Big deal. We have an infinite supply!",
			"Congrats on your participation trophy!",
			"Did you close your eyes for that shot? Because it looked like it.",
			"Even a broken clock is right twice a day, I guess.",
			"Ooh, you're really scaring us now. Not!",
			"Was that your best shot? Please say no.",
			"You call that a kill? I've seen better shots in a flu vaccine.",
			"Wow, you destroyed our intern on their first day. How does it feel to crush dreams?",
			"One down, a million to go. You've got this! (Not really)",
			"Oh no, you've slightly inconvenienced us. Whatever shall we do?",
			"Congratulations! You've won... absolutely nothing.",
			"Great shot! Said no one, ever.",
			"You're really making a dent in our infinite army. Keep it up, champ!",
		),
		AlienDestroyedTough: OneOf(
			"Oh no, you destroyed our tough alien! ...Said no one ever.",
			"Congrats, you've achieved the bare minimum!",
			"Don't get cocky, that was our intern!",
			"Wow, you actually took down a tough one. Did someone hack for you?",
			"One tough alien down, a million more to go. Feeling tired yet?",
			"Great, you killed our bodybuilder alien. Now who's going to spot us?",
			"Impressive. Most impressive. But you are not a Jedi yet.",
			"You took down our tough guy? Must've been his day off.",
			"Congratulations on beating the tutorial boss!",
			"That was our tough alien? Remind me to fire our recruitment team.",
			"Okay, okay, you got one. Want a medal or a chest to pin it on?",
			"Wow, you're stronger than you look! Still pathetically weak, though.",
			"That tough alien had a family, you monster! Just kidding, we're all soulless.",
			"You may have won the battle, but you're still losing the war, human!",
			"I bet you feel real proud of yourself now, huh? Enjoy it while it lasts.",
			"Great job! You've unlocked achievement: 'False Hope'!",
			"Oh no, our slightly-harder-to-kill alien! However will we recover?",
			"Congrats! You've graduated from 'totally useless' to 'mostly useless'!",
			"Impressive. Now do that a million more times and you might have a chance.",
			"You actually did it! Now face the wrath of our slightly tougher aliens!",
		),
		LevelUp: OneOf(
			"Higher level, higher failure rate for you!",
			"Ooh, things are getting serious now... Not!",
			"Ready for more embarrassment?",
		),
		GainLife: OneOf(
			"Another life? Prolonging your suffering, I see.",
			"Great, more chances for us to destroy you!",
			"Oh good, I was worried we'd run out of lives to take!",
		),
		PowerUpDestroyed: OneOf(
			"Nice shot! ...On your own power-up, idiot!",
			"Destroying your own power-ups now? Clever strategy!",
			"Thanks for making our job easier!",
		),
		GamePaused: OneOf(
			"Taking a break? We'll wait. We're very patient invaders.",
			"Pausing won't save you, human!",
			"Go ahead, catch your breath. You'll need it.",
		),
		GameResumed: OneOf(
			"Oh good, you're back. We missed beating you.",
			"Break's over, time to lose again!",
			"Welcome back to your doom!",
		),
	}
}
