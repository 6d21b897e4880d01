package combat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/horde-survival/internal/behavior"
	"github.com/annel0/horde-survival/internal/config"
	"github.com/annel0/horde-survival/internal/entity"
	"github.com/annel0/horde-survival/internal/powerup"
	"github.com/annel0/horde-survival/internal/spatial"
	"github.com/annel0/horde-survival/internal/vec"
)

type arena struct {
	b   *config.Balance
	r   *Resolver
	m   *entity.Manager
	idx *spatial.Index
}

func newArena(t *testing.T) *arena {
	t.Helper()
	b := config.DefaultBalance()
	m := entity.NewManager()
	m.SetPlayer(entity.NewPlayer(b.Player, vec.New(1000, 1000), powerup.NewEffects(b.PowerUps.Kinds)))
	return &arena{b: b, r: NewResolver(b, behavior.NewEngine(b)), m: m, idx: spatial.New(64)}
}

// enemy создаёт врага с заданным HP и контактным уроном
func (a *arena) enemy(pos vec.Vec2, hp, contact float64) *entity.Enemy {
	st := a.b.Enemies[config.EnemyChaser]
	st.HP = hp
	st.ContactDamage = contact
	e := entity.NewEnemy(entity.Chaser, st, pos, 1, 1)
	e.State = entity.Chasing
	a.m.SpawnEnemy(e)
	return e
}

func (a *arena) reindex() {
	a.idx.Clear()
	for _, e := range a.m.Enemies() {
		if e.Alive() {
			a.idx.Insert(e.ID, e.Pos, e.Radius)
		}
	}
}

func (a *arena) projectile(pos vec.Vec2, kind entity.ProjectileKind, damage float64, pierce int) *entity.Projectile {
	p := &entity.Projectile{
		Faction:         entity.FactionPlayer,
		Kind:            kind,
		Pos:             pos,
		Radius:          5,
		Damage:          damage,
		Lifetime:        2,
		PierceRemaining: pierce,
		ExplosionRadius: 50,
	}
	a.m.SpawnProjectile(p)
	return p
}

func TestPiercing_HitsExactlyNDistinctEnemies(t *testing.T) {
	a := newArena(t)
	var enemies []*entity.Enemy
	for i := 0; i < 5; i++ {
		enemies = append(enemies, a.enemy(vec.New(100+float64(i)*4, 100), 100, 0))
	}
	a.reindex()
	p := a.projectile(vec.New(108, 100), entity.Piercing, 10, 3)

	for tick := 0; tick < 5; tick++ {
		res := &Result{}
		a.r.Resolve(a.m, a.idx, res, float64(tick)/60, 1.0/60)
	}

	damaged := 0
	for i, e := range enemies {
		if e.HP < e.MaxHP {
			damaged++
			assert.Equal(t, 90.0, e.HP, "каждая цель поражена ровно один раз")
			assert.Less(t, i, 3, "при равенстве первыми поражаются меньшие ID")
		}
	}
	assert.Equal(t, 3, damaged)
	assert.True(t, p.Dead)
	assert.Equal(t, 3, p.HitCount())
}

func TestPiercing_NeverHitsSameEnemyTwice(t *testing.T) {
	a := newArena(t)
	e := a.enemy(vec.New(100, 100), 500, 0)
	a.reindex()
	p := a.projectile(vec.New(100, 100), entity.Piercing, 10, 3)

	for tick := 0; tick < 10; tick++ {
		p.Advance(1.0 / 600)
		a.r.Resolve(a.m, a.idx, &Result{}, 0, 1.0/60)
	}
	assert.Equal(t, 490.0, e.HP)
	assert.False(t, p.Dead, "остаток пробития не тратится на ту же цель")
	assert.Equal(t, 2, p.PierceRemaining)
}

func TestBasicProjectile_TieBreakLowestID(t *testing.T) {
	a := newArena(t)
	first := a.enemy(vec.New(100, 100), 50, 0)
	second := a.enemy(vec.New(102, 100), 50, 0)
	a.reindex()
	p := a.projectile(vec.New(101, 100), entity.Basic, 10, 1)

	res := &Result{}
	a.r.Resolve(a.m, a.idx, res, 0, 1.0/60)
	assert.Equal(t, 40.0, first.HP)
	assert.Equal(t, 50.0, second.HP)
	assert.True(t, p.Dead)
	assert.Equal(t, 1, res.Hits)
}

func TestExplosive_SplashesOnlyEnemiesInRadius(t *testing.T) {
	a := newArena(t)
	st := a.b.Enemies[config.EnemyChaser]
	require.Equal(t, 15.0, st.Radius)

	direct := a.enemy(vec.New(200, 200), 100, 0)
	nearA := a.enemy(vec.New(230, 200), 100, 0)
	nearB := a.enemy(vec.New(200, 170), 100, 0)
	outside := a.enemy(vec.New(300, 200), 100, 0)
	a.reindex()
	a.projectile(vec.New(200, 200), entity.Explosive, 20, 1)

	res := &Result{}
	a.r.Resolve(a.m, a.idx, res, 0, 1.0/60)

	for _, e := range []*entity.Enemy{direct, nearA, nearB} {
		assert.Equal(t, 80.0, e.HP, "враг %d в радиусе получает 20", e.ID)
	}
	assert.Equal(t, 100.0, outside.HP, "вне радиуса урона нет")
	assert.Equal(t, 60.0, res.DamageDealt)

	explosions := 0
	for _, n := range res.Notices {
		if n.Kind == NoticeExplosion {
			explosions++
			assert.Equal(t, 50.0, n.Radius)
		}
	}
	assert.Equal(t, 1, explosions)
}

func TestKill_MovesToDyingAndLeavesIndex(t *testing.T) {
	a := newArena(t)
	e := a.enemy(vec.New(100, 100), 10, 0)
	a.reindex()
	a.projectile(vec.New(100, 100), entity.Basic, 25, 1)

	res := &Result{}
	a.r.Resolve(a.m, a.idx, res, 0, 1.0/60)
	assert.Equal(t, entity.Dying, e.State)
	assert.Equal(t, 0.0, e.HP)
	assert.Equal(t, []entity.ID{e.ID}, res.Killed)
	assert.Equal(t, 10.0, res.DamageDealt, "засчитывается только снятое HP")
	_, _, ok := a.idx.Position(e.ID)
	assert.False(t, ok)
}

func TestContact_CooldownPerEnemy(t *testing.T) {
	a := newArena(t)
	player := a.m.Player()
	a.enemy(player.Pos.Add(vec.New(10, 0)), 25, 10)
	a.reindex()

	elapsed := 0.0
	for tick := 0; tick < 3; tick++ {
		elapsed += 1.0 / 60
		a.r.Resolve(a.m, a.idx, &Result{}, elapsed, 1.0/60)
	}
	assert.Equal(t, 90.0, player.HP, "три тика касания дают урон один раз")

	a.r.Resolve(a.m, a.idx, &Result{}, elapsed+1.0, 1.0/60)
	assert.Equal(t, 80.0, player.HP, "после кулдауна урон повторяется")
}

func TestContact_EachEnemyHasOwnCooldown(t *testing.T) {
	a := newArena(t)
	player := a.m.Player()
	a.enemy(player.Pos.Add(vec.New(10, 0)), 25, 10)
	a.enemy(player.Pos.Add(vec.New(-10, 0)), 25, 5)
	a.reindex()

	res := &Result{}
	a.r.Resolve(a.m, a.idx, res, 0.1, 1.0/60)
	assert.Equal(t, 85.0, player.HP)
	assert.Equal(t, 15.0, res.DamageTaken)
}

func TestContact_BackstabDoublesOnce(t *testing.T) {
	a := newArena(t)
	player := a.m.Player()
	st := a.b.Enemies[config.EnemyAssassin]
	e := entity.NewEnemy(entity.Assassin, st, player.Pos.Add(vec.New(5, 0)), 1, 1)
	e.State = entity.Chasing
	e.BackstabReady = true
	a.m.SpawnEnemy(e)
	a.reindex()

	a.r.Resolve(a.m, a.idx, &Result{}, 0, 1.0/60)
	assert.Equal(t, 20.0, player.HP, "удар в спину x2")
	assert.False(t, e.BackstabReady)
}

func TestShield_HalvesDamage(t *testing.T) {
	a := newArena(t)
	player := a.m.Player()
	_, err := player.Buffs.Apply(config.PowerUpShield)
	require.NoError(t, err)

	res := &Result{}
	taken := a.r.HitPlayer(a.m, res, 30, entity.NoID, vec.Zero, CauseProjectile)
	assert.Equal(t, 15.0, taken)
	assert.Equal(t, 85.0, player.HP)
}

func TestHostileProjectile_HitsPlayerOnce(t *testing.T) {
	a := newArena(t)
	player := a.m.Player()
	p := &entity.Projectile{
		Faction: entity.FactionHostile, Kind: entity.Basic,
		Pos: player.Pos.Add(vec.New(-40, 0)), Vel: vec.New(3000, 0),
		Radius: 6, Damage: 15, Lifetime: 3, PierceRemaining: 1,
	}
	a.m.SpawnProjectile(p)
	p.Advance(1.0 / 60) // пролетает сквозь игрока за один шаг

	res := &Result{}
	a.r.Resolve(a.m, a.idx, res, 0, 1.0/60)
	assert.True(t, p.Dead)
	assert.Equal(t, 85.0, player.HP)

	a.r.Resolve(a.m, a.idx, &Result{}, 0, 1.0/60)
	assert.Equal(t, 85.0, player.HP)
}

func TestPickups_MagnetAndCollect(t *testing.T) {
	a := newArena(t)
	player := a.m.Player()
	orb := &entity.Pickup{Kind: entity.PickupXP, Pos: player.Pos.Add(vec.New(70, 0)), Radius: 6, XP: 10, TTL: 10}
	far := &entity.Pickup{Kind: entity.PickupXP, Pos: player.Pos.Add(vec.New(400, 0)), Radius: 6, XP: 20, TTL: 10}
	a.m.SpawnPickup(orb)
	a.m.SpawnPickup(far)

	collected := 0
	for tick := 0; tick < 30; tick++ {
		res := &Result{}
		a.r.Resolve(a.m, a.idx, res, 0, 1.0/60)
		collected += res.XP
	}
	assert.Equal(t, 10, collected)
	assert.True(t, orb.Dead)
	assert.False(t, far.Dead)
	assert.False(t, far.Magnetized)
}

func TestPickups_MagnetizedOrbMovesFromNextTick(t *testing.T) {
	a := newArena(t)
	player := a.m.Player()
	start := player.Pos.Add(vec.New(70, 0))
	orb := &entity.Pickup{Kind: entity.PickupXP, Pos: start, Radius: 6, XP: 10, TTL: 10}
	a.m.SpawnPickup(orb)

	a.r.Resolve(a.m, a.idx, &Result{}, 0, 1.0/60)
	require.True(t, orb.Magnetized, "сфера в радиусе притяжения")
	assert.Equal(t, start, orb.Pos, "в тике притяжения сфера стоит")

	a.r.Resolve(a.m, a.idx, &Result{}, 0, 1.0/60)
	step := a.b.Pickups.HomingSpeed / 60
	assert.InDelta(t, 70-step, orb.Pos.DistanceTo(player.Pos), 1e-9, "со следующего тика летит к игроку")
}

func TestPickups_PowerUpOnTouch(t *testing.T) {
	a := newArena(t)
	player := a.m.Player()
	pk := &entity.Pickup{Kind: entity.PickupPowerUp, Pos: player.Pos.Add(vec.New(15, 0)), Radius: 6, PowerUp: config.PowerUpShield, TTL: 15}
	a.m.SpawnPickup(pk)

	res := &Result{}
	a.r.Resolve(a.m, a.idx, res, 0, 1.0/60)
	assert.Equal(t, []string{config.PowerUpShield}, res.PowerUps)
	assert.Zero(t, res.XP)
}

func TestBeam_HitsPlayerOnLine(t *testing.T) {
	a := newArena(t)
	player := a.m.Player()
	from := player.Pos.Add(vec.New(-300, 25))
	to := player.Pos.Add(vec.New(300, 25))

	taken := a.r.Beam(a.m, &Result{}, from, to, 20, 35, 77)
	assert.Equal(t, 35.0, taken, "луч толщиной 20 задевает круг радиуса 20 на расстоянии 25")

	taken = a.r.Beam(a.m, &Result{}, from.Add(vec.New(0, 20)), to.Add(vec.New(0, 20)), 20, 35, 77)
	assert.Zero(t, taken)
}

func TestDetonate_DamageFallsOffWithDistance(t *testing.T) {
	a := newArena(t)
	player := a.m.Player()
	st := a.b.Enemies[config.EnemyBomber]
	bomber := entity.NewEnemy(entity.Bomber, st, player.Pos.Add(vec.New(40, 0)), 1, 1)
	a.m.SpawnEnemy(bomber)
	near := a.enemy(player.Pos.Add(vec.New(60, 0)), 100, 0)
	edge := a.enemy(player.Pos.Add(vec.New(130, 0)), 100, 0)
	a.reindex()

	res := &Result{}
	a.r.Detonate(a.m, a.idx, res, bomber, 80, 25)
	assert.InDelta(t, 87.5, player.HP, 1e-9, "игрок в 40 из 80: половина урона")
	assert.InDelta(t, 81.25, near.HP, 1e-9, "враг в 20 из 80: три четверти урона")
	assert.Equal(t, 100.0, edge.HP, "касание краем без ослабления по центру не ранит")
	assert.Zero(t, res.DamageDealt, "урон бомбера не засчитывается игроку")

	assert.Zero(t, bomber.HP, "бомбер погибает при подрыве")
	assert.Equal(t, entity.Dying, bomber.State)
	assert.True(t, bomber.SelfDestructed)
	assert.Equal(t, []entity.ID{bomber.ID}, res.Killed)
	_, _, indexed := a.idx.Position(bomber.ID)
	assert.False(t, indexed)

	// повторный подрыв уже мёртвого бомбера ничего не делает
	a.r.Detonate(a.m, a.idx, res, bomber, 80, 25)
	assert.InDelta(t, 87.5, player.HP, 1e-9)
}

func TestDetonate_EnemySplashFactor(t *testing.T) {
	a := newArena(t)
	a.b.Combat.EnemySplashFactor = 0.5
	player := a.m.Player()
	st := a.b.Enemies[config.EnemyBomber]
	bomber := entity.NewEnemy(entity.Bomber, st, player.Pos.Add(vec.New(40, 0)), 1, 1)
	a.m.SpawnEnemy(bomber)
	other := a.enemy(bomber.Pos, 100, 0)
	a.reindex()

	a.r.Detonate(a.m, a.idx, &Result{}, bomber, 80, 20)
	assert.InDelta(t, 90.0, other.HP, 1e-9, "в центре полный урон, умноженный на коэффициент")
	assert.InDelta(t, 90.0, player.HP, 1e-9, "коэффициент не касается игрока")
}

func TestLandShell_HitsPlayerInRadius(t *testing.T) {
	a := newArena(t)
	player := a.m.Player()
	shell := &entity.Projectile{Faction: entity.FactionHostile, Lobbed: true, Pos: player.Pos.Add(vec.New(50, 0)), Damage: 40, ExplosionRadius: 60}
	a.m.SpawnProjectile(shell)

	res := &Result{}
	a.r.LandShell(a.m, res, shell)
	assert.True(t, shell.Dead)
	assert.Equal(t, 60.0, player.HP)
	require.NotEmpty(t, res.Notices)
	assert.Equal(t, NoticeExplosion, res.Notices[0].Kind)

	far := &entity.Projectile{Faction: entity.FactionHostile, Lobbed: true, Pos: player.Pos.Add(vec.New(200, 0)), Damage: 40, ExplosionRadius: 60}
	a.m.SpawnProjectile(far)
	a.r.LandShell(a.m, res, far)
	assert.Equal(t, 60.0, player.HP, "игрок вне радиуса падения")
}
