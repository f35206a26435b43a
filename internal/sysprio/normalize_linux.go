package sysprio

func normalize(prio int) int { return 20 - prio }
