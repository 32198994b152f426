package sqlinline

const QSelectLedger = `--sql 5532a377-b1a9-42d4-84c3-2d3667367bbd
select account_id, used, monthly_limit, period_start, updated_at
from usage_ledgers
where account_id = $1::text
limit 1;
`

const QUpsertLedger = `--sql 7fd06198-3df0-4c6e-81f0-351b37cd6038
insert into usage_ledgers (account_id, used, monthly_limit, period_start, updated_at)
values ($1::text, $2::int, $3::int, $4::timestamptz, now())
on conflict (account_id) do update set
    used = excluded.used,
    monthly_limit = excluded.monthly_limit,
    period_start = excluded.period_start,
    updated_at = now();
`

const QIncrementLedger = `--sql cdb85484-6263-4dbe-85c7-3aedcce44190
update usage_ledgers
set used = used + 1,
    updated_at = now()
where account_id = $1::text
returning used;
`
